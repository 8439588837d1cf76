// Package envelope は BFF が返す JSON レスポンスの共通形式と、
// 上流 API 呼び出し結果からレスポンスへの正規化を提供します。
package envelope

import (
	"encoding/json"
	"fmt"
)

// Envelope は {success, data, message} 形式のレスポンスです。
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// MarshalJSON は data が空の場合に {} を出力します。
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	out := plain(e)
	if isEmptyData(out.Data) {
		out.Data = emptyObject()
	}
	return json.Marshal(out)
}

// Fail は data が {} の失敗レスポンスを作成します。
func Fail(message string) Envelope {
	return Envelope{
		Success: false,
		Data:    emptyObject(),
		Message: message,
	}
}

// New は data を JSON 化してレスポンスを作成します。
// data の JSON 化に失敗した場合は {} になります。
func New(success bool, data any, message string) Envelope {
	raw, err := json.Marshal(data)
	if err != nil || data == nil {
		raw = emptyObject()
	}
	return Envelope{
		Success: success,
		Data:    raw,
		Message: message,
	}
}

// UnknownErrorMessage は上流がメッセージを返さなかった場合の汎用メッセージです。
func UnknownErrorMessage(status int) string {
	return fmt.Sprintf("An unknown error occurred: %d", status)
}

type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message *string         `json:"message"`
}

// Parse は body が Envelope 形式であれば解釈して返します。
// success フィールドを持つ JSON オブジェクトのみを Envelope とみなします。
func Parse(body []byte) (Envelope, bool) {
	var w wireEnvelope
	if err := json.Unmarshal(body, &w); err != nil || w.Success == nil {
		return Envelope{}, false
	}
	env := Envelope{
		Success: *w.Success,
		Data:    w.Data,
	}
	if w.Message != nil {
		env.Message = *w.Message
	}
	if isEmptyData(env.Data) {
		env.Data = emptyObject()
	}
	return env, true
}

// Wrap は Envelope 形式ではない上流のボディを data に包みます。
func Wrap(success bool, status int, body []byte) Envelope {
	env := Envelope{Success: success, Data: emptyObject()}
	if len(body) > 0 {
		if json.Valid(body) {
			env.Data = append(json.RawMessage(nil), body...)
		} else if raw, err := json.Marshal(string(body)); err == nil {
			env.Data = raw
		}
	}
	if !success {
		env.Message = messageField(body)
		if env.Message == "" {
			env.Message = UnknownErrorMessage(status)
		}
	}
	return env
}

func messageField(body []byte) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	return obj.Message
}

func emptyObject() json.RawMessage {
	return json.RawMessage(`{}`)
}

func isEmptyData(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}
