package engine

import (
	"github.com/slack-go/slack"

	"github.com/xela07ax/slack-leave-gateway/internal/domain"
)

// Идентификаторы формы и кнопок. Slack вернет их в коллбэках как есть,
// поэтому они — часть протокола, а не деталь рендеринга.
const (
	CommandLeave = "/leave-me"

	CallbackSubmitLeave = "submit_leave_request"

	ActionApprove = "approve_leave_request"
	ActionReject  = "reject_leave_request"

	blockFrom     = "leave_request_from"
	inputFrom     = "leave_request_from_input"
	blockUntil    = "leave_request_until"
	inputUntil    = "leave_request_until_input"
	blockKind     = "leave_request_full_half"
	inputKind     = "leave_request_full_half_input"
	blockReason   = "leave_request_reason"
	inputReason   = "leave_request_reason_input"
	blockDecision = "leave_request_decision"
)

func plainText(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, s, false, false)
}

func mrkdwn(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, s, false, false)
}

// LeaveFormView строит модалку запроса отпуска. originChannel уезжает в
// private_metadata — Slack вернет его без изменений на сабмите, это второй
// (после токена кнопки) кусок состояния, хранимый на стороне платформы.
// Кросс-полевой валидации здесь нет: datepicker'ы друг о друге не знают.
func LeaveFormView(originChannel string) slack.ModalViewRequest {
	fullDay := slack.NewOptionBlockObject(string(domain.KindFullDay), plainText("Full day(s)"), nil)
	halfDay := slack.NewOptionBlockObject(string(domain.KindHalfDay), plainText("Half day"), nil)

	kindRadio := slack.NewRadioButtonsBlockElement(inputKind, fullDay, halfDay)
	kindRadio.InitialOption = fullDay

	reasonInput := slack.NewPlainTextInputBlockElement(nil, inputReason)
	reasonInput.Multiline = true

	reasonBlock := slack.NewInputBlock(blockReason, plainText("Reason"), nil, reasonInput)
	reasonBlock.Optional = true

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackSubmitLeave,
		PrivateMetadata: originChannel,
		Title:           plainText("Request a leave"),
		Submit:          plainText("Submit"),
		Close:           plainText("Cancel"),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					plainText("Fill and submit below information to request a leave. Please be noted, the dates are inclusive."),
					nil, nil),
				slack.NewInputBlock(blockFrom, plainText("From date"), nil,
					slack.NewDatePickerBlockElement(inputFrom)),
				slack.NewInputBlock(blockUntil, plainText("Last date"), nil,
					slack.NewDatePickerBlockElement(inputUntil)),
				slack.NewInputBlock(blockKind, plainText("Full or half-day"), nil, kindRadio),
				reasonBlock,
			},
		},
	}
}
