package layout

import "testing"

func TestPlanBreaks_EvenSplit(t *testing.T) {
    tests := []struct {
        name        string
        items       int
        pages       int
        wantBreaks  []int
    }{
        {"ten items two pages", 10, 2, []int{4}},
        {"fortyfive items two pages", 45, 2, []int{21}},
        {"nine items three pages", 9, 3, []int{2, 5}},
        {"zero items", 0, 2, nil},
        {"one item many pages", 1, 4, nil},
        {"single page", 30, 1, nil},
        {"fewer items than pages", 3, 5, []int{0, 1}},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            plan, err := PlanBreaks(tt.items, tt.pages)
            if err != nil {
                t.Fatalf("PlanBreaks(%d, %d) error: %v", tt.items, tt.pages, err)
            }
            if len(plan.BreakAfter) != len(tt.wantBreaks) {
                t.Fatalf("break count = %v, want %v", plan.BreakAfter, tt.wantBreaks)
            }
            for i, b := range plan.BreakAfter {
                if b != tt.wantBreaks[i] {
                    t.Errorf("break[%d] = %d, want %d", i, b, tt.wantBreaks[i])
                }
            }
        })
    }
}

func TestPlanBreaks_RejectsInvalidPageCount(t *testing.T) {
    if _, err := PlanBreaks(10, 0); err == nil {
        t.Error("expected error for targetPages=0")
    }
    if _, err := PlanBreaks(10, -3); err == nil {
        t.Error("expected error for negative targetPages")
    }
}

// Every plan must have strictly increasing indices inside [0, N-2], and at
// most min(P-1, N-1) of them.
func TestPlanBreaks_Bounds(t *testing.T) {
    for n := 0; n <= 120; n++ {
        for p := 1; p <= 8; p++ {
            plan, err := PlanBreaks(n, p)
            if err != nil {
                t.Fatalf("PlanBreaks(%d, %d) error: %v", n, p, err)
            }
            max := p - 1
            if n-1 < max { max = n - 1 }
            if max < 0 { max = 0 }
            if len(plan.BreakAfter) > max {
                t.Fatalf("PlanBreaks(%d, %d): %d breaks, max %d", n, p, len(plan.BreakAfter), max)
            }
            prev := -1
            for _, b := range plan.BreakAfter {
                if b <= prev {
                    t.Fatalf("PlanBreaks(%d, %d): indices not strictly increasing: %v", n, p, plan.BreakAfter)
                }
                if b < 0 || b > n-2 {
                    t.Fatalf("PlanBreaks(%d, %d): index %d out of [0, %d]", n, p, b, n-2)
                }
                prev = b
            }
        }
    }
}

func TestBreakPlan_Breaks(t *testing.T) {
    plan, _ := PlanBreaks(10, 2)
    if !plan.Breaks(4) {
        t.Error("expected break after index 4")
    }
    if plan.Breaks(5) || plan.Breaks(9) {
        t.Error("unexpected break index reported")
    }
}
