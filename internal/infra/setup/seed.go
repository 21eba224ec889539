package setup

import (
	"time"

	"yihuitong/internal/domain"
)

// SampleMeeting 是一条示例历史会议及其字幕。
type SampleMeeting struct {
	Record     domain.MeetingRecord
	Transcript []domain.TranscriptLine
}

var cst = time.FixedZone("CST", 8*60*60)

func line(t, text string) domain.TranscriptLine {
	return domain.TranscriptLine{Time: t, Text: text}
}

// SampleMeetings 返回初始的五场历史会议，按开始时间倒序。
func SampleMeetings() []SampleMeeting {
	return []SampleMeeting{
		{
			Record: domain.MeetingRecord{
				ID: "meeting-001", Title: "2024年1月15日 会议", RoomNumber: "1234",
				StartTime: "14:30", EndTime: "15:45", Duration: "1小时15分钟",
				Status: domain.MeetingStatusEnded, StartedAt: time.Date(2024, 1, 15, 14, 30, 0, 0, cst),
			},
			Transcript: []domain.TranscriptLine{
				line("14:30:15", "Hello everyone, welcome to today's meeting."),
				line("14:30:18", "大家好，欢迎参加今天的会议。"),
				line("14:30:25", "First, let's discuss our quarterly goals."),
				line("14:30:28", "首先，让我们讨论我们的季度目标。"),
				line("14:30:35", "We need to increase our sales by 20% this quarter."),
				line("14:30:38", "我们本季度需要将销售额提高20%。"),
				line("14:30:45", "What strategies do we have in place?"),
				line("14:30:48", "我们有什么策略？"),
				line("14:30:55", "We can focus on digital marketing and customer retention."),
				line("14:30:58", "我们可以专注于数字营销和客户保留。"),
				line("14:31:05", "That sounds good. Let's break it down into action items."),
				line("14:31:08", "听起来不错。让我们将其分解为行动项目。"),
			},
		},
		{
			Record: domain.MeetingRecord{
				ID: "meeting-002", Title: "2024年1月12日 会议", RoomNumber: "5678",
				StartTime: "10:00", EndTime: "11:20", Duration: "1小时20分钟",
				Status: domain.MeetingStatusEnded, StartedAt: time.Date(2024, 1, 12, 10, 0, 0, 0, cst),
			},
			Transcript: []domain.TranscriptLine{
				line("10:00:10", "Good morning team, let's start the weekly sync."),
				line("10:00:13", "早上好团队，让我们开始每周同步。"),
				line("10:00:20", "How is the project going?"),
				line("10:00:23", "项目进展如何？"),
				line("10:00:30", "We are on track for the deadline."),
				line("10:00:33", "我们按计划进行，能按时完成。"),
			},
		},
		{
			Record: domain.MeetingRecord{
				ID: "meeting-003", Title: "2024年1月10日 会议", RoomNumber: "9012",
				StartTime: "16:15", EndTime: "17:30", Duration: "1小时15分钟",
				Status: domain.MeetingStatusEnded, StartedAt: time.Date(2024, 1, 10, 16, 15, 0, 0, cst),
			},
			Transcript: []domain.TranscriptLine{
				line("16:15:05", "Let's review the budget for next quarter."),
				line("16:15:08", "让我们回顾下一季度的预算。"),
			},
		},
		{
			Record: domain.MeetingRecord{
				ID: "meeting-004", Title: "2024年1月8日 会议", RoomNumber: "3456",
				StartTime: "13:00", EndTime: "14:15", Duration: "1小时15分钟",
				Status: domain.MeetingStatusEnded, StartedAt: time.Date(2024, 1, 8, 13, 0, 0, 0, cst),
			},
			Transcript: []domain.TranscriptLine{
				line("13:00:12", "Welcome to the product review meeting."),
				line("13:00:15", "欢迎参加产品评审会议。"),
			},
		},
		{
			Record: domain.MeetingRecord{
				ID: "meeting-005", Title: "2024年1月5日 会议", RoomNumber: "7890",
				StartTime: "09:30", EndTime: "10:45", Duration: "1小时15分钟",
				Status: domain.MeetingStatusEnded, StartedAt: time.Date(2024, 1, 5, 9, 30, 0, 0, cst),
			},
			Transcript: []domain.TranscriptLine{
				line("09:30:08", "Let's discuss the new marketing campaign."),
				line("09:30:11", "让我们讨论新的营销活动。"),
			},
		},
	}
}
