package services

import (
	"strings"

	"github.com/mssola/user_agent"
	"golang.org/x/text/language"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"

	Other = "other"
)

// ClientInfo is the classification of a single User-Agent string.
type ClientInfo struct {
	Device         string
	Browser        string
	BrowserVersion string
	OS             string
	IsBot          bool
}

type uaRule struct {
	name    string
	markers []string
	unless  []string
}

// Order matters: in-app browsers embed Chrome or Safari tokens, and Edge and
// Opera embed Chrome tokens.
var browserRules = []uaRule{
	{name: "whatsapp", markers: []string{"whatsapp"}},
	{name: "telegram", markers: []string{"telegram"}},
	{name: "facebook", markers: []string{"fban", "fbav", "fb_iab"}},
	{name: "instagram", markers: []string{"instagram"}},
	{name: "edge", markers: []string{"edg/", "edga/", "edgios/", "edge/"}},
	{name: "opera", markers: []string{"opr/", "opera"}},
	{name: "chrome", markers: []string{"chrome", "crios"}},
	{name: "firefox", markers: []string{"firefox", "fxios"}},
	{name: "safari", markers: []string{"safari", "applewebkit"}, unless: []string{"chrome", "chromium"}},
}

// iOS and Android are checked before macOS and Linux because their UA strings
// also carry "like Mac OS X" and "Linux".
var osRules = []uaRule{
	{name: "windows", markers: []string{"windows"}},
	{name: "ios", markers: []string{"iphone", "ipad", "ipod"}},
	{name: "android", markers: []string{"android"}},
	{name: "macos", markers: []string{"mac os", "macintosh"}},
	{name: "linux", markers: []string{"linux", "x11"}},
}

func (r uaRule) match(ua string) bool {
	for _, u := range r.unless {
		if strings.Contains(ua, u) {
			return false
		}
	}
	for _, m := range r.markers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

func firstMatch(rules []uaRule, ua string) string {
	ua = strings.ToLower(ua)
	for _, r := range rules {
		if r.match(ua) {
			return r.name
		}
	}
	return Other
}

func ClassifyDevice(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipod") || strings.Contains(ua, "android"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func ClassifyBrowser(ua string) string {
	return firstMatch(browserRules, ua)
}

func ClassifyOS(ua string) string {
	return firstMatch(osRules, ua)
}

// Classify derives the full client triple plus the browser version and bot
// flag reported by the user_agent parser.
func Classify(ua string) ClientInfo {
	info := ClientInfo{
		Device:  ClassifyDevice(ua),
		Browser: ClassifyBrowser(ua),
		OS:      ClassifyOS(ua),
	}
	if ua == "" {
		return info
	}
	parsed := user_agent.New(ua)
	_, info.BrowserVersion = parsed.Browser()
	info.IsBot = parsed.Bot()
	return info
}

// PrimaryLanguage returns the highest weighted base language tag of an
// Accept-Language header, or "" if none can be parsed.
func PrimaryLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
