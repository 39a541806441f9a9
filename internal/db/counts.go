package db

import "gorm.io/gorm"

// ChildCount is the number of rows that depend on a group or subgroup.
type ChildCount struct {
	SubGroups int64 `json:"subGroups"`
	Requests  int64 `json:"requests"`
}

// Total returns the number of dependents of any kind.
func (c ChildCount) Total() int64 {
	return c.SubGroups + c.Requests
}

type GroupWithCount struct {
	RequestGroup
	Count ChildCount `json:"_count"`
}

type SubGroupWithCount struct {
	RequestSubGroup
	Count ChildCount `json:"_count"`
}

type countRow struct {
	ID uint
	N  int64
}

func countBy(tx *gorm.DB, model any, column string, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []countRow
	err := tx.Model(model).
		Select(column+" AS id, COUNT(*) AS n").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}

// GroupCounts returns subgroup and request counts for each group id.
func GroupCounts(tx *gorm.DB, ids []uint) (map[uint]ChildCount, error) {
	subs, err := countBy(tx, &RequestSubGroup{}, "group_id", ids)
	if err != nil {
		return nil, err
	}
	reqs, err := countBy(tx, &Request{}, "group_id", ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]ChildCount, len(ids))
	for _, id := range ids {
		out[id] = ChildCount{SubGroups: subs[id], Requests: reqs[id]}
	}
	return out, nil
}

// SubGroupCounts returns request counts for each subgroup id.
func SubGroupCounts(tx *gorm.DB, ids []uint) (map[uint]ChildCount, error) {
	reqs, err := countBy(tx, &Request{}, "sub_group_id", ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]ChildCount, len(ids))
	for _, id := range ids {
		out[id] = ChildCount{Requests: reqs[id]}
	}
	return out, nil
}
