package format

import (
	"fmt"

	"github.com/john/guildlog/internal/event"
)

type voiceTransition struct {
	title    string
	matches  func(before, after event.VoiceSnapshot) bool
	describe func(before, after event.VoiceSnapshot) string
}

// voiceRules is evaluated top to bottom; the first match wins
var voiceRules = []voiceTransition{
	{
		title: "Voice Channel Joined",
		matches: func(b, a event.VoiceSnapshot) bool {
			return b.ChannelID == "" && a.ChannelID != ""
		},
		describe: func(_, a event.VoiceSnapshot) string {
			return fmt.Sprintf("**Channel:** <#%s>", a.ChannelID)
		},
	},
	{
		title: "Voice Channel Left",
		matches: func(b, a event.VoiceSnapshot) bool {
			return b.ChannelID != "" && a.ChannelID == ""
		},
		describe: func(b, _ event.VoiceSnapshot) string {
			return fmt.Sprintf("**Channel:** <#%s>", b.ChannelID)
		},
	},
	{
		title: "Voice Channel Moved",
		matches: func(b, a event.VoiceSnapshot) bool {
			return b.ChannelID != "" && a.ChannelID != "" && b.ChannelID != a.ChannelID
		},
		describe: func(b, a event.VoiceSnapshot) string {
			return fmt.Sprintf("**From:** <#%s>\n**To:** <#%s>", b.ChannelID, a.ChannelID)
		},
	},
	{
		title: "Voice Mute Changed",
		matches: func(b, a event.VoiceSnapshot) bool {
			return b.Muted != a.Muted || b.ServerMuted != a.ServerMuted
		},
		describe: func(_, a event.VoiceSnapshot) string {
			return fmt.Sprintf("**Muted:** %s\n**Server Muted:** %s\n**Channel:** <#%s>",
				yesNo(a.Muted), yesNo(a.ServerMuted), a.ChannelID)
		},
	},
	{
		title: "Voice Deafen Changed",
		matches: func(b, a event.VoiceSnapshot) bool {
			return b.Deafened != a.Deafened || b.ServerDeafened != a.ServerDeafened
		},
		describe: func(_, a event.VoiceSnapshot) string {
			return fmt.Sprintf("**Deafened:** %s\n**Server Deafened:** %s\n**Channel:** <#%s>",
				yesNo(a.Deafened), yesNo(a.ServerDeafened), a.ChannelID)
		},
	},
}

func classifyVoice(before, after event.VoiceSnapshot) (voiceTransition, bool) {
	for _, rule := range voiceRules {
		if rule.matches(before, after) {
			return rule, true
		}
	}
	return voiceTransition{}, false
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
