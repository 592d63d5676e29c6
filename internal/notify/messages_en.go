package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Private messages
	message.SetString(lang, "assignment.title", "🎅 **Secret Santa!**")
	message.SetString(lang, "assignment.target", "You are giving a gift to **%s**!")
	message.SetString(lang, "assignment.details", "📦 **Delivery details:**")
	message.SetString(lang, "assignment.pickup.ozon", "- **Ozon**: %s")
	message.SetString(lang, "assignment.pickup.wildberries", "- **Wildberries**: %s")
	message.SetString(lang, "assignment.pickup.yandex", "- **Yandex Market**: %s")
	message.SetString(lang, "assignment.note", "- **Notes**: %s")
	message.SetString(lang, "assignment.footer", "🤫 Don't give yourself away!")
	message.SetString(lang, "gift.title", "🎁 **Your Secret Santa sent you a gift!**")
	message.SetString(lang, "gift.note", "📝 %s")
	message.SetString(lang, "value.none", "none")
	message.SetString(lang, "value.unspecified", "not specified")

	// Command replies
	message.SetString(lang, "reply.profile_saved", "✅ Gift details saved!")
	message.SetString(lang, "reply.invalid_profile", "❌ Say who the gift is for.")
	message.SetString(lang, "reply.dm_only", "❌ This command only works in **direct messages**.")
	message.SetString(lang, "reply.operator_only", "🔒 This command is for the organizer only.")
	message.SetString(lang, "reply.insufficient", "❌ At least 2 participants are needed!")
	message.SetString(lang, "reply.in_progress", "⏳ An exchange is already running, wait for it to finish.")
	message.SetString(lang, "reply.exchange_accepted", "⏳ Exchange started, sending messages…")
	message.SetString(lang, "reply.exchange_done", "✅ Secret Santa is on! Participants: %d.")
	message.SetString(lang, "reply.exchange_unreachable", "⚠️ Could not message %d participants (DMs closed).")
	message.SetString(lang, "reply.exchange_transport", "⚠️ Delivery failed for %d participants, check the run log.")
	message.SetString(lang, "reply.exchange_journal", "⚠️ Assignments were saved but the run log was not written.")
	message.SetString(lang, "reply.not_eligible", "❌ You are not in the exchange or it has not started yet.")
	message.SetString(lang, "reply.missing_attachment", "❌ Please attach an image (QR code).")
	message.SetString(lang, "reply.forward_sent", "✅ QR code and message sent to your recipient!")
	message.SetString(lang, "reply.forward_unreachable", "❌ Could not reach your recipient: they do not accept DMs from bots.")
	message.SetString(lang, "reply.forward_failed", "❌ Sending failed. Please try again later.")
	message.SetString(lang, "reply.storage_failed", "❌ Could not save your data. Please try again later.")
	message.SetString(lang, "reply.unknown_command", "❌ Unknown command.")
}
