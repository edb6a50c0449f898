package model

import "strings"

// Source identifies the acquisition channel of a lead.
type Source string

const (
	SourceInstagram Source = "Instagram"
	SourceFacebook  Source = "Facebook"
	SourceTikTok    Source = "TikTok"
	SourceWhatsApp  Source = "WhatsApp"
	SourceWebForm   Source = "Web Form"
	SourceEmpty     Source = ""
)

// KnownSources lists every non-empty acquisition channel, in display order.
func KnownSources() []Source {
	return []Source{SourceInstagram, SourceFacebook, SourceTikTok, SourceWhatsApp, SourceWebForm}
}

// Normalize maps free-form input onto the closed Source set. Unknown values
// collapse to empty.
func (s Source) Normalize() Source {
	switch canonicalToken(string(s)) {
	case "instagram", "ig":
		return SourceInstagram
	case "facebook", "fb":
		return SourceFacebook
	case "tiktok":
		return SourceTikTok
	case "whatsapp", "wa":
		return SourceWhatsApp
	case "webform", "web":
		return SourceWebForm
	default:
		return SourceEmpty
	}
}

// FirstCallStatus is the recorded outcome of the first pipeline call.
type FirstCallStatus string

const (
	FirstCallInterested    FirstCallStatus = "Interested"
	FirstCallAnswered      FirstCallStatus = "Answered"
	FirstCallVoicemail     FirstCallStatus = "Voicemail"
	FirstCallNotInterested FirstCallStatus = "Not Interested"
	FirstCallEmpty         FirstCallStatus = ""
)

// Normalize maps free-form input onto the closed FirstCallStatus set.
func (s FirstCallStatus) Normalize() FirstCallStatus {
	switch canonicalToken(string(s)) {
	case "interested":
		return FirstCallInterested
	case "answered":
		return FirstCallAnswered
	case "voicemail":
		return FirstCallVoicemail
	case "notinterested":
		return FirstCallNotInterested
	default:
		return FirstCallEmpty
	}
}

// SecondCallStatus is the recorded outcome of the second pipeline call.
type SecondCallStatus string

const (
	SecondCallTheyCalled SecondCallStatus = "They Called"
	SecondCallWeCalled   SecondCallStatus = "We Called"
	SecondCallVoicemail  SecondCallStatus = "Voicemail"
	SecondCallAnswered   SecondCallStatus = "Answered"
	SecondCallEmpty      SecondCallStatus = ""
)

// Normalize maps free-form input onto the closed SecondCallStatus set.
func (s SecondCallStatus) Normalize() SecondCallStatus {
	switch canonicalToken(string(s)) {
	case "theycalled":
		return SecondCallTheyCalled
	case "wecalled":
		return SecondCallWeCalled
	case "voicemail":
		return SecondCallVoicemail
	case "answered":
		return SecondCallAnswered
	default:
		return SecondCallEmpty
	}
}

// FinalStatus is the terminal registration outcome of a lead.
type FinalStatus string

const (
	FinalRegistered     FinalStatus = "Registered"
	FinalNotRegistered  FinalStatus = "Not Registered"
	FinalFollowUpNeeded FinalStatus = "Follow-up Needed"
	FinalEmpty          FinalStatus = ""
)

// Normalize maps free-form input onto the closed FinalStatus set.
func (s FinalStatus) Normalize() FinalStatus {
	switch canonicalToken(string(s)) {
	case "registered":
		return FinalRegistered
	case "notregistered":
		return FinalNotRegistered
	case "followupneeded", "followup":
		return FinalFollowUpNeeded
	default:
		return FinalEmpty
	}
}

// canonicalToken lowercases input and strips separators so "Not Interested",
// "not-interested" and "NOT_INTERESTED" compare equal.
func canonicalToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_', '.':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
