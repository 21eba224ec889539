package service

import "yihuitong/internal/domain"

// initialSubtitles 是会议室打开时已经显示的字幕，最后一行正在播放。
func initialSubtitles() []domain.SubtitleLine {
	return []domain.SubtitleLine{
		{
			ID:         1,
			Time:       "00:01:23",
			Original:   "Hello, welcome to our meeting today. I'm very glad to see everyone here.",
			Translated: "你好，欢迎参加我们今天的会议。我很高兴看到大家都在这里。",
			Status:     domain.SubtitlePlayed,
		},
		{
			ID:         2,
			Time:       "00:01:35",
			Original:   "Today we're going to discuss the new product launch strategy for the upcoming quarter.",
			Translated: "今天我们将讨论下一季度的新产品发布策略。",
			Status:     domain.SubtitlePlayed,
		},
		{
			ID:         3,
			Time:       "00:02:10",
			Original:   "I think we need to focus on digital marketing channels to reach our target audience.",
			Translated: "我认为我们需要专注于数字营销渠道来触达我们的目标受众。",
			Status:     domain.SubtitlePlayed,
		},
		{
			ID:         4,
			Time:       "00:03:45",
			Original:   "The budget allocation for this campaign should be carefully considered.",
			Translated: "这次活动的预算分配需要仔细考虑。",
			Status:     domain.SubtitlePlayed,
		},
		{
			ID:         5,
			Time:       "00:05:12",
			Original:   "Let's move on to the next agenda item: customer feedback analysis.",
			Translated: "让我们进入下一个议程项目：客户反馈分析。",
			Status:     domain.SubtitlePlaying,
		},
	}
}

// cannedSubtitles 是实时生成器轮流使用的字幕。
var cannedSubtitles = []domain.CannedSubtitle{
	{Original: "Let's discuss the timeline for the project implementation.", Translated: "让我们讨论项目实施的时间表。"},
	{Original: "We need to ensure that all team members are on the same page.", Translated: "我们需要确保所有团队成员都达成共识。"},
	{Original: "The deadline for this phase is the end of next month.", Translated: "这个阶段的截止日期是下个月底。"},
	{Original: "Communication is key to the success of this project.", Translated: "沟通是这个项目成功的关键。"},
}

// CannedSubtitles 返回生成器使用的字幕列表副本
func CannedSubtitles() []domain.CannedSubtitle {
	out := make([]domain.CannedSubtitle, len(cannedSubtitles))
	copy(out, cannedSubtitles)
	return out
}
