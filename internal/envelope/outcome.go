package envelope

import "net/http"

// Kind は上流呼び出し結果の種別です。
type Kind int

const (
	// KindSuccess は上流が 2xx を返したことを表します。
	KindSuccess Kind = iota
	// KindUpstreamError は上流に到達し、2xx 以外が返ったことを表します。
	KindUpstreamError
	// KindTransportFailure は上流から構造化された応答を得られなかったことを表します。
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUpstreamError:
		return "upstream_error"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Outcome は上流クライアント呼び出しの結果です。
// Status は KindTransportFailure では常に 0 です。
type Outcome struct {
	Kind     Kind
	Status   int
	Envelope Envelope
	Reason   error

	// ContentType と Body は上流の生レスポンスです（リソース転送用）。
	ContentType string
	Body        []byte
}

// Succeeded は KindSuccess の結果を作成します。
func Succeeded(status int, env Envelope) Outcome {
	return Outcome{Kind: KindSuccess, Status: status, Envelope: env}
}

// UpstreamFailed は KindUpstreamError の結果を作成します。
func UpstreamFailed(status int, env Envelope) Outcome {
	return Outcome{Kind: KindUpstreamError, Status: status, Envelope: env}
}

// TransportFailed は KindTransportFailure の結果を作成します。
func TransportFailed(reason error) Outcome {
	return Outcome{Kind: KindTransportFailure, Reason: reason}
}

// Normalize は結果を (HTTP ステータス, Envelope) に変換します。
// 上流の成功・エラー応答はそのまま返し、通信失敗は 500 にします。
func Normalize(o Outcome) (int, Envelope) {
	switch o.Kind {
	case KindSuccess, KindUpstreamError:
		return o.Status, o.Envelope
	default:
		return http.StatusInternalServerError, Fail(reasonMessage(o.Reason))
	}
}

func reasonMessage(reason error) string {
	if reason == nil {
		return "upstream request failed"
	}
	return reason.Error()
}
