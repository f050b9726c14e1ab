package models

import "testing"

func side(oi, chg int64) *OptionSide {
	return &OptionSide{OI: oi, ChangeOI: chg}
}

func TestMergedCollapsesExpiries(t *testing.T) {
	snap := &Snapshot{
		Strikes: []StrikeRow{
			{Strike: 24000, Expiry: "04-Sep-2026", CE: side(100, 10), PE: side(200, -5)},
			{Strike: 24000, Expiry: "11-Sep-2026", CE: side(50, 5)},
			{Strike: 24100, Expiry: "04-Sep-2026", PE: side(300, 0)},
		},
	}

	merged := snap.Merged()
	if len(merged) != 2 {
		t.Fatalf("merged rows = %d, want 2", len(merged))
	}

	row := merged[0]
	if row.Strike != 24000 || row.CEOI() != 150 || row.CEChangeOI() != 15 {
		t.Errorf("merged CE = %+v", row.CE)
	}
	if row.PEOI() != 200 || row.PEChangeOI() != -5 {
		t.Errorf("merged PE = %+v", row.PE)
	}
	if merged[1].Strike != 24100 || merged[1].PEOI() != 300 {
		t.Errorf("merged[1] = %+v", merged[1])
	}
}

func TestMergedDoesNotAliasSource(t *testing.T) {
	snap := &Snapshot{
		Strikes: []StrikeRow{
			{Strike: 24000, CE: side(100, 10)},
		},
	}

	merged := snap.Merged()
	merged[0].CE.OI = 999

	if snap.Strikes[0].CE.OI != 100 {
		t.Error("Merged must deep-copy sides, the snapshot was mutated")
	}
}

func TestSnapshotTotals(t *testing.T) {
	snap := &Snapshot{
		Strikes: []StrikeRow{
			{Strike: 24000, CE: side(100, 10), PE: side(200, -5)},
			{Strike: 24100, PE: side(300, 7)},
		},
	}

	ce, pe := snap.OITotals()
	if ce != 100 || pe != 500 {
		t.Errorf("OITotals = %d/%d, want 100/500", ce, pe)
	}
	ceChg, peChg := snap.ChangeOITotals()
	if ceChg != 10 || peChg != 2 {
		t.Errorf("ChangeOITotals = %d/%d, want 10/2", ceChg, peChg)
	}
}

func TestNilSideAccessors(t *testing.T) {
	var row StrikeRow
	if row.CEOI() != 0 || row.PEOI() != 0 || row.CEChangeOI() != 0 || row.PEChangeOI() != 0 {
		t.Error("absent sides must read as zero")
	}
}

func TestRatioComparisons(t *testing.T) {
	inf := Ratio{State: RatioInfinite}
	undef := Ratio{State: RatioUndefined}
	one := NewRatio(100, 100)

	if !inf.GreaterThan(1e12) || !inf.AtLeast(1) || inf.LessThan(1e12) {
		t.Error("infinite ratio comparison semantics broken")
	}
	if undef.GreaterThan(0) || undef.AtLeast(0) || undef.LessThan(1e12) {
		t.Error("undefined ratio must satisfy no threshold")
	}
	if !one.IsDefined() || one.Value != 1 || !one.AtLeast(1) || one.GreaterThan(1) {
		t.Errorf("ratio = %+v", one)
	}
}

func TestOpenTradeDirection(t *testing.T) {
	buy := OpenTrade{EntrySignal: SignalBuy, EntryPrice: 100}
	sell := OpenTrade{EntrySignal: SignalSell, EntryPrice: 100}

	if buy.UnrealizedPnL(110) != 10 {
		t.Errorf("BUY unrealized = %v, want 10", buy.UnrealizedPnL(110))
	}
	if sell.UnrealizedPnL(110) != -10 {
		t.Errorf("SELL unrealized = %v, want -10", sell.UnrealizedPnL(110))
	}
}
