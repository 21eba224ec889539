// Package navigator 描述六个页面的路由表，以及页面切换时上报的路径变更消息。
package navigator

import (
	"context"
	"net/url"
	"strings"

	"yihuitong/internal/domain"
)

// 页面路径
const (
	PathRoot          = "/"
	PathLogin         = "/login"
	PathMeetingSelect = "/meeting-select"
	PathCreateMeeting = "/create-meeting"
	PathJoinMeeting   = "/join-meeting"
	PathMeetingRoom   = "/meeting-room"
	PathMeetingRecord = "/meeting-record"
)

// PathChangeType 是路径变更消息的类型，也用作 Redis 频道名的后缀。
const PathChangeType = "chux-path-change"

// NotFoundPageID 是未匹配路由时的页面 ID。
const NotFoundPageID = "P-NOT-FOUND"

// Screen 是一个可导航的页面。
type Screen struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

var screens = []Screen{
	{Path: PathLogin, Title: "译会通 - 登录"},
	{Path: PathMeetingSelect, Title: "译会通 - 会议选择"},
	{Path: PathCreateMeeting, Title: "译会通 - 会议已创建"},
	{Path: PathJoinMeeting, Title: "译会通 - 加入会议"},
	{Path: PathMeetingRoom, Title: "译会通 - 会议进行中"},
	{Path: PathMeetingRecord, Title: "译会通 - 会议记录"},
}

// Screens 返回全部页面，顺序与路由注册顺序一致。
func Screens() []Screen {
	out := make([]Screen, len(screens))
	copy(out, screens)
	return out
}

// Lookup 查找 pathname 所属的页面，子路径 (如 /meeting-record/:id) 归属其父页面。
func Lookup(pathname string) (Screen, bool) {
	for _, s := range screens {
		if pathname == s.Path || strings.HasPrefix(pathname, s.Path+"/") {
			return s, true
		}
	}
	return Screen{}, false
}

// PageID 由路径计算页面 ID：去掉第一个 "/" 后转大写，再加 "P-" 前缀。
func PageID(pathname string) string {
	return "P-" + strings.ToUpper(strings.Replace(pathname, "/", "", 1))
}

// PathChange 是每次导航后上报的消息。
type PathChange struct {
	Type     string `json:"type"`
	PageID   string `json:"pageId"`
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
}

// NewPathChange 构造路径变更消息，rawQuery 非空时 Search 带 "?" 前缀。
func NewPathChange(pathname, rawQuery string) PathChange {
	search := ""
	if rawQuery != "" {
		search = "?" + rawQuery
	}
	return PathChange{
		Type:     PathChangeType,
		PageID:   PageID(pathname),
		Pathname: pathname,
		Search:   search,
	}
}

// PathChangeFromTarget 解析一个导航目标 (可带查询串) 并构造消息。
func PathChangeFromTarget(target string) (PathChange, error) {
	u, err := url.Parse(target)
	if err != nil {
		return PathChange{}, err
	}
	return NewPathChange(u.Path, u.RawQuery), nil
}

// Reporter 负责把路径变更通知给外部观察者。
type Reporter interface {
	Report(ctx context.Context, change PathChange) error
}

// MeetingRoomURL 返回会议室页面地址，参数顺序固定为 roomNumber、role。
func MeetingRoomURL(roomNumber string, role domain.Role) string {
	return PathMeetingRoom + "?roomNumber=" + url.QueryEscape(roomNumber) + "&role=" + url.QueryEscape(string(role))
}
