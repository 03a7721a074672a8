package stock

import "errors"

// 在庫の管理モード（個数管理 or グラム管理）
type Mode string

const (
	ModeQuantity Mode = "QUANTITY"
	ModeWeight   Mode = "WEIGHT"
)

// 判定結果の理由コード
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonDisabled     Reason = "disabled"
	ReasonNoRecord     Reason = "no_record"
	ReasonInsufficient Reason = "insufficient"
	ReasonAtMaximum    Reason = "at_maximum"
)

var (
	// モードと合わない量が渡された
	ErrModeMismatch = errors.New("amount does not match stock mode")
	// 負の量は評価しない（呼び出し側の入力エラー）
	ErrNegativeAmount = errors.New("negative amount")
	// 未知のモード
	ErrUnknownMode = errors.New("unknown stock mode")
)

// 在庫管理ON/OFFのスイッチ。
// グローバルにせず、必ず引数で渡す。
type Policy struct {
	ManagementEnabled bool
}

// 商品（＋任意のバリアント）1件分の在庫値。
// レコード自体が無い場合はnilで渡す（在庫ゼロ扱い）。
type Record struct {
	Quantity    int64   // QUANTITYモードで有効
	WeightGrams float64 // WEIGHTモードで有効
}

// 今回リクエストされた量。モード付きで作る。
type Request struct {
	mode   Mode
	amount float64
}

func QuantityRequest(qty int64) Request {
	return Request{mode: ModeQuantity, amount: float64(qty)}
}

func WeightRequest(grams float64) Request {
	return Request{mode: ModeWeight, amount: grams}
}

func (r Request) Amount() float64 { return r.amount }

// 既にカート等で押さえている量。ゼロ値＝何も持っていない。
type Commitment struct {
	mode  Mode
	total float64
}

func QuantityCommitment(count int64) Commitment {
	return Commitment{mode: ModeQuantity, total: float64(count)}
}

// WEIGHTモードの既存分は 個数 × 1個あたり重量 で数える
func WeightCommitment(unitCount int64, perUnitWeightGrams float64) Commitment {
	return Commitment{mode: ModeWeight, total: float64(unitCount) * perUnitWeightGrams}
}

func (c Commitment) Total() float64 { return c.total }

// 判定結果
type Result struct {
	Available          bool    // 今回の量単独で満たせるか
	SufficientForTotal bool    // 既存分＋今回分まで満たせるか
	Headroom           float64 // 既存分を超えてあと何個/何g追加できるか（負あり）
	AvailableAmount    float64 // 在庫の生の値（管理OFF時はUnlimited）
	Reason             Reason
}

// 残りを表示用に0でクランプした値
func (r Result) DisplayHeadroom() float64 {
	if r.Headroom < 0 {
		return 0
	}
	return r.Headroom
}
