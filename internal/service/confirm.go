package service

// ConfirmAction 是需要二次确认的会议室操作。
type ConfirmAction string

const (
	ConfirmEnd    ConfirmAction = "end"
	ConfirmLeave  ConfirmAction = "leave"
	ConfirmLogout ConfirmAction = "logout"
)

// Modal 是确认对话框的标题与正文。
type Modal struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var confirmModals = map[ConfirmAction]Modal{
	ConfirmEnd:    {Title: "确认结束会议", Message: "确定要结束当前会议吗？所有参会者将被移出会议。"},
	ConfirmLeave:  {Title: "确认退出会议", Message: "确定要退出当前会议吗？"},
	ConfirmLogout: {Title: "确认退出登录", Message: "确定要退出登录吗？将离开当前会议。"},
}

// ConfirmationError 表示操作尚未确认，调用方应展示 Modal。
type ConfirmationError struct {
	Action ConfirmAction
	Modal  Modal
}

func (e *ConfirmationError) Error() string {
	return "confirmation required for " + string(e.Action)
}

func (e *ConfirmationError) Is(target error) bool { return target == ErrConfirmationRequired }

// ModalFor 返回操作对应的确认对话框。
func ModalFor(action ConfirmAction) (Modal, bool) {
	m, ok := confirmModals[action]
	return m, ok
}

// RequireConfirmation 在 confirmed 为 false 时返回 ConfirmationError。
func RequireConfirmation(action ConfirmAction, confirmed bool) error {
	if confirmed {
		return nil
	}
	return &ConfirmationError{Action: action, Modal: confirmModals[action]}
}
