package idhash

import "testing"

func TestComputeScanID(t *testing.T) {
	got := ComputeScanID("AAPL", 1767225600000)

	if len(got) != 64 {
		t.Errorf("ComputeScanID() length = %d, want 64", len(got))
	}
	if again := ComputeScanID("AAPL", 1767225600000); again != got {
		t.Errorf("ComputeScanID() not deterministic: %s vs %s", got, again)
	}
	if other := ComputeScanID("MSFT", 1767225600000); other == got {
		t.Errorf("ComputeScanID() collides across instruments: %s", got)
	}
	if other := ComputeScanID("AAPL", 1767225600001); other == got {
		t.Errorf("ComputeScanID() collides across scan times: %s", got)
	}
}

func TestComputePositionID(t *testing.T) {
	got := ComputePositionID("NVDA", 1767225600000, 187.42)

	if len(got) != 64 {
		t.Errorf("ComputePositionID() length = %d, want 64", len(got))
	}
	if again := ComputePositionID("NVDA", 1767225600000, 187.42); again != got {
		t.Errorf("ComputePositionID() not deterministic: %s vs %s", got, again)
	}
	if other := ComputePositionID("NVDA", 1767225600000, 187.43); other == got {
		t.Errorf("ComputePositionID() collides across entry prices: %s", got)
	}

	// Six-decimal formatting keeps near-equal prices distinct but folds
	// sub-micro noise into the same id.
	a := ComputePositionID("NVDA", 1767225600000, 187.420000)
	b := ComputePositionID("NVDA", 1767225600000, 187.4200000001)
	if a != b {
		t.Errorf("sub-micro price noise should not change the id: %s vs %s", a, b)
	}
}
