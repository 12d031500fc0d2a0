package alignment

import "testing"

func TestAgreement(t *testing.T) {
	tests := []struct {
		a, b    []int32
		want    float64
		wantErr bool
	}{
		{[]int32{1, 2, 3, 4}, []int32{1, 2, 0, 0}, 0.5, false},
		{[]int32{1}, []int32{1}, 1, false},
		{[]int32{}, []int32{}, 1, false},
		{[]int32{1, 2}, []int32{1}, 0, true},
	}
	for _, tt := range tests {
		got, err := Agreement(tt.a, tt.b)
		if (err != nil) != tt.wantErr {
			t.Errorf("Agreement(%v, %v) error = %v", tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Agreement(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCounter(t *testing.T) {
	c := Counter{Threshold: 0.5}
	if err := c.Add([]int32{0, 2, 2}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Add([]int32{2, 4}, []float64{0.9, 0.5}); err != nil {
		t.Fatal(err)
	}
	want := []int32{1, 0, 3, 0, 0}
	if len(c.Counts) != len(want) {
		t.Fatalf("Counts = %v, want %v", c.Counts, want)
	}
	for i := range want {
		if c.Counts[i] != want[i] {
			t.Errorf("Counts[%d] = %d, want %d", i, c.Counts[i], want[i])
		}
	}
	if err := c.Add([]int32{-1}, nil); err == nil {
		t.Error("negative label should fail")
	}
	if err := c.Add([]int32{1, 1}, []float64{1}); err == nil {
		t.Error("short weights should fail")
	}
}
