package notify

import "github.com/go-resty/resty/v2"

const (
	ChannelPushdeer = iota
	ChannelPushplus
	ChannelEmail
)

// DefaultChannels lists the built-in channels, their position is the index
// users select them by.
func DefaultChannels(token string, client *resty.Client, mail EmailOptions) []Channel {
	return []Channel{
		ChannelPushdeer: NewTemplateChannel("pushdeer", PushdeerTemplate, token, client),
		ChannelPushplus: NewTemplateChannel("pushplus", PushplusTemplate, token, client),
		ChannelEmail:    NewEmailChannel(mail),
	}
}
