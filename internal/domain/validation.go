package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// 登录表单的错误提示。
const (
	MsgEmailRequired = "请输入邮箱地址"
	MsgEmailInvalid  = "请输入有效的邮箱地址"
	MsgNameRequired  = "请输入您的姓名"
	MsgNameTooShort  = "姓名至少需要2个字符"
	MsgLoginFailed   = "登录失败，请重试"
)

// 加入会议表单的错误提示。
const (
	MsgRoomNumberRequired  = "请输入房间号码"
	MsgRoomNumberLength    = "房间号码必须为四位数"
	MsgRoomNumberNotDigits = "房间号码只能包含数字"
	MsgRoomNotFound        = "房间不存在或已结束"
)

// MinNameLength 是显示名称的最小字符数。
const MinNameLength = 2

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	roomNumberPattern = regexp.MustCompile(`^\d{4}$`)
)

// FieldErrors 以字段名为键保存表单校验错误。
type FieldErrors map[string]string

// Empty 判断是否没有任何字段错误。
func (f FieldErrors) Empty() bool { return len(f) == 0 }

// LoginForm 是登录表单提交的内容。
type LoginForm struct {
	Email string
	Name  string
}

// Normalize 去掉首尾空白。
func (f LoginForm) Normalize() LoginForm {
	return LoginForm{Email: strings.TrimSpace(f.Email), Name: strings.TrimSpace(f.Name)}
}

// Validate 校验登录表单，所有不通过的字段一起返回。
func (f LoginForm) Validate() FieldErrors {
	n := f.Normalize()
	errs := FieldErrors{}

	switch {
	case n.Email == "":
		errs["email"] = MsgEmailRequired
	case !IsValidEmail(n.Email):
		errs["email"] = MsgEmailInvalid
	}

	switch {
	case n.Name == "":
		errs["name"] = MsgNameRequired
	case utf8.RuneCountInString(n.Name) < MinNameLength:
		errs["name"] = MsgNameTooShort
	}

	return errs
}

// Identity 返回表单对应的身份。
func (f LoginForm) Identity() Identity {
	n := f.Normalize()
	return Identity{DisplayName: n.Name, Email: n.Email}
}

// IsValidEmail 检查邮箱是否符合 local@domain.tld 形式。
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateRoomNumber 校验房间号码，返回与失败条件对应的提示，通过时返回空串。
// 校验顺序：为空、长度不是四位、包含非数字。
func ValidateRoomNumber(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return MsgRoomNumberRequired
	}
	if utf8.RuneCountInString(v) != 4 {
		return MsgRoomNumberLength
	}
	if !roomNumberPattern.MatchString(v) {
		return MsgRoomNumberNotDigits
	}
	return ""
}

// IsRoomNumber 判断字符串是否为合法的四位房间号码。
func IsRoomNumber(value string) bool {
	return roomNumberPattern.MatchString(value)
}
