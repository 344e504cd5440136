package search

import "sort"

// Less 排序规则：命中层级 → 精选 → 新近 → id → 类型
func Less(a, b Result) bool {
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	if a.Featured != b.Featured {
		return a.Featured
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Type < b.Type
}

// Merge 按 type:id 去重后排序
func Merge(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	merged := make([]Result, 0, len(results))
	for _, r := range results {
		k := string(r.Type) + ":" + r.ID
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool { return Less(merged[i], merged[j]) })
	return merged
}

// Slice 取当前页；越界返回空切片而不是 nil，便于序列化为 []
func (p Page) Slice(rs []Result) []Result {
	if p.Offset >= len(rs) {
		return []Result{}
	}
	end := p.Offset + p.Limit
	if end > len(rs) {
		end = len(rs)
	}
	return rs[p.Offset:end]
}

func Rank(results []Result, p Page) []Result { return p.Slice(Merge(results)) }
