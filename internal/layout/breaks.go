package layout

import "fmt"

// BreakPlan partitions an ordered item list across pages. A page break is
// inserted immediately after each index in BreakAfter; indices are
// strictly increasing, zero-based, and never point at the last item.
type BreakPlan struct {
    TargetPageCount int
    BreakAfter      []int
}

// Breaks reports whether a break follows the item at index i.
func (p BreakPlan) Breaks(i int) bool {
    for _, b := range p.BreakAfter {
        if b == i {
            return true
        }
    }
    return false
}

// PlanBreaks computes break indices splitting itemCount items across
// targetPages as evenly as possible, remainder biased toward earlier
// pages. targetPages < 1 is a caller contract violation and the only
// error this package produces; the plan itself degrades instead of
// failing, collapsing to fewer breaks when there are fewer items than
// pages.
func PlanBreaks(itemCount, targetPages int) (BreakPlan, error) {
    if targetPages < 1 {
        return BreakPlan{}, fmt.Errorf("target page count must be >= 1, got %d", targetPages)
    }
    plan := BreakPlan{TargetPageCount: targetPages}
    // One item cannot be split; zero items need no breaks.
    if itemCount < 2 || targetPages == 1 {
        return plan, nil
    }
    last := -1
    for k := 1; k < targetPages; k++ {
        idx := itemCount*k/targetPages - 1
        if idx < 0 { idx = 0 }
        if idx > itemCount-2 { idx = itemCount - 2 }
        if idx == last {
            continue
        }
        plan.BreakAfter = append(plan.BreakAfter, idx)
        last = idx
    }
    return plan, nil
}
