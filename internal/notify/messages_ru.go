package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Russian

	// Private messages
	message.SetString(lang, "assignment.title", "🎅 **Тайный Санта!**")
	message.SetString(lang, "assignment.target", "Вы дарите подарок **%s**!")
	message.SetString(lang, "assignment.details", "📦 **Информация о подарке:**")
	message.SetString(lang, "assignment.pickup.ozon", "- **Ozon**: %s")
	message.SetString(lang, "assignment.pickup.wildberries", "- **Wildberries**: %s")
	message.SetString(lang, "assignment.pickup.yandex", "- **Яндекс.Маркет**: %s")
	message.SetString(lang, "assignment.note", "- **Дополнительно**: %s")
	message.SetString(lang, "assignment.footer", "🤫 Не выдавайте себя!")
	message.SetString(lang, "gift.title", "🎁 **Вам пришёл подарок от Тайного Санты!**")
	message.SetString(lang, "gift.note", "📝 %s")
	message.SetString(lang, "value.none", "нет")
	message.SetString(lang, "value.unspecified", "не скажу")

	// Command replies
	message.SetString(lang, "reply.profile_saved", "✅ Данные о подарках сохранены!")
	message.SetString(lang, "reply.invalid_profile", "❌ Укажите, кому предназначен подарок.")
	message.SetString(lang, "reply.dm_only", "❌ Эта команда доступна **только в личных сообщениях**.")
	message.SetString(lang, "reply.operator_only", "🔒 Эта команда доступна только администратору.")
	message.SetString(lang, "reply.insufficient", "❌ Нужно минимум 2 участника!")
	message.SetString(lang, "reply.in_progress", "⏳ Распределение уже идёт, дождитесь завершения.")
	message.SetString(lang, "reply.exchange_accepted", "⏳ Распределение запущено, рассылаю сообщения…")
	message.SetString(lang, "reply.exchange_done", "✅ Тайный Санта запущен! Участников: %d.")
	message.SetString(lang, "reply.exchange_unreachable", "⚠️ Не удалось отправить ЛС %d участникам (закрыты ЛС).")
	message.SetString(lang, "reply.exchange_transport", "⚠️ Ошибка доставки у %d участников, проверьте журнал.")
	message.SetString(lang, "reply.exchange_journal", "⚠️ Распределение сохранено, но журнал запуска не записан.")
	message.SetString(lang, "reply.not_eligible", "❌ Вы не участвуете в Тайном Санте или распределение ещё не запущено.")
	message.SetString(lang, "reply.missing_attachment", "❌ Пожалуйста, прикрепите изображение (QR-код).")
	message.SetString(lang, "reply.forward_sent", "✅ QR-код и сообщение успешно отправлены получателю!")
	message.SetString(lang, "reply.forward_unreachable", "❌ Не удалось отправить сообщение получателю: у него закрыты ЛС с ботами.")
	message.SetString(lang, "reply.forward_failed", "❌ Произошла ошибка при отправке. Попробуйте позже.")
	message.SetString(lang, "reply.storage_failed", "❌ Не удалось сохранить данные. Попробуйте позже.")
	message.SetString(lang, "reply.unknown_command", "❌ Неизвестная команда.")
}
