package vk

import "encoding/json"

// Цвета кнопок клавиатуры ВКонтакте.
const (
	ColorPrimary   = "primary"
	ColorSecondary = "secondary"
	ColorPositive  = "positive"
	ColorNegative  = "negative"
)

// Keyboard описывает клавиатуру сообщения.
type Keyboard struct {
	OneTime bool       `json:"one_time,omitempty"`
	Inline  bool       `json:"inline,omitempty"`
	Buttons [][]Button `json:"buttons"`
}

// Button — одна кнопка клавиатуры.
type Button struct {
	Action ButtonAction `json:"action"`
	Color  string       `json:"color,omitempty"`
}

// ButtonAction содержит текст и полезную нагрузку кнопки.
type ButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

// NewButton создаёт текстовую кнопку с JSON-нагрузкой.
func NewButton(label, color string, payload any) Button {
	var raw string
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = string(data)
		}
	}
	return Button{
		Action: ButtonAction{Type: "text", Label: label, Payload: raw},
		Color:  color,
	}
}

// Row собирает кнопки в один ряд.
func Row(buttons ...Button) []Button {
	return buttons
}

// Marshal сериализует клавиатуру для messages.send.
func (k Keyboard) Marshal() []byte {
	data, err := json.Marshal(k)
	if err != nil {
		return nil
	}
	return data
}
