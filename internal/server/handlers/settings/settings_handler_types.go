package settings

import "github.com/wardenbot/warden/internal/server/settings"

// UpdateSettingsRequest is the JSON body for settings updates.
type UpdateSettingsRequest struct {
	Prefix            string   `json:"prefix" binding:"required"`
	Extensions        []string `json:"extensions"`
	ModLogChannel     string   `json:"mod_log_channel"`
	JoinLogChannel    string   `json:"join_log_channel"`
	MessageLogChannel string   `json:"message_log_channel"`
}

func (r *UpdateSettingsRequest) ToSettings(guild string) *settings.GuildSettings {
	extensions := r.Extensions
	if extensions == nil {
		extensions = []string{}
	}
	return &settings.GuildSettings{
		Guild:             guild,
		Prefix:            r.Prefix,
		Extensions:        extensions,
		ModLogChannel:     r.ModLogChannel,
		JoinLogChannel:    r.JoinLogChannel,
		MessageLogChannel: r.MessageLogChannel,
	}
}

// SetTimezoneRequest is the JSON body for role timezone assignment.
type SetTimezoneRequest struct {
	Zone string `json:"zone" binding:"required"`
}
