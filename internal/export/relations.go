package export

import "siteplan/internal/domain"

// FilterRelations keeps the finish-to-start edges. When milestones are
// excluded from the export, edges touching a milestone are dropped too. The
// input is never mutated.
func FilterRelations(relations []domain.Relation, includeMilestones bool) []domain.Relation {
	var out []domain.Relation
	for _, r := range relations {
		if r.Type != domain.RelationFinishToStart {
			continue
		}
		if !includeMilestones &&
			(r.SourceType == domain.RelationElementMilestone || r.TargetType == domain.RelationElementMilestone) {
			continue
		}
		out = append(out, r)
	}
	return out
}
