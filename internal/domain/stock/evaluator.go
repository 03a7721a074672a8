package stock

// 在庫管理OFF時にAvailableAmountへ入れる番兵値
const Unlimited float64 = 1 << 31

// Evaluateは「この量をカートに足してよいか」を判定する純粋関数。
// 在庫は書き換えない。実際の減算は注文確定側がトランザクション内で行う。
func Evaluate(p Policy, mode Mode, rec *Record, req Request, existing Commitment) (Result, error) {
	if mode != ModeQuantity && mode != ModeWeight {
		return Result{}, ErrUnknownMode
	}
	if req.mode != mode {
		return Result{}, ErrModeMismatch
	}
	// ゼロ値Commitmentはどちらのモードでも許す
	if existing.mode != "" && existing.mode != mode {
		return Result{}, ErrModeMismatch
	}
	if req.amount < 0 || existing.total < 0 {
		return Result{}, ErrNegativeAmount
	}

	// 在庫管理OFFなら無条件で通す
	if !p.ManagementEnabled {
		return Result{
			Available:          true,
			SufficientForTotal: true,
			Headroom:           Unlimited,
			AvailableAmount:    Unlimited,
			Reason:             ReasonDisabled,
		}, nil
	}

	// レコードが無い＝在庫ゼロ
	if rec == nil {
		return Result{
			Available:          false,
			SufficientForTotal: false,
			Headroom:           0,
			AvailableAmount:    0,
			Reason:             ReasonNoRecord,
		}, nil
	}

	var available float64
	switch mode {
	case ModeQuantity:
		available = float64(rec.Quantity)
	case ModeWeight:
		available = rec.WeightGrams
	}

	// 境界は>=/<=（ぴったりはOK）
	totalCommitted := existing.total + req.amount
	headroom := available - existing.total

	res := Result{
		Available:          available >= req.amount,
		SufficientForTotal: totalCommitted <= available,
		Headroom:           headroom,
		AvailableAmount:    available,
		Reason:             ReasonOK,
	}

	if !res.SufficientForTotal {
		if headroom > 0 {
			res.Reason = ReasonInsufficient
		} else {
			res.Reason = ReasonAtMaximum
		}
	}

	return res, nil
}
