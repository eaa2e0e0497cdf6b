package report

import (
	"sort"

	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/report/facts"
)

// Drilldown builds the category → subcategory → meter → resource tree over
// the scope row set, not the active one, so every facet stays visible while a
// pick narrows the chart and cards. Resource leaves without a true resource
// id are kept in the totals but marked non-pickable.
func (s *Session) Drilldown() []domain.DrilldownNode {
	type meterAcc struct {
		node      domain.DrilldownNode
		resources map[string]*domain.DrilldownNode
	}
	type subcatAcc struct {
		node   domain.DrilldownNode
		meters map[string]*meterAcc
	}
	type catAcc struct {
		node    domain.DrilldownNode
		subcats map[string]*subcatAcc
	}

	cats := map[string]*catAcc{}
	for id := range s.state.ScopeRowIDs() {
		row := s.table.Rows[id]

		cat, ok := cats[row.MeterCategory]
		if !ok {
			cat = &catAcc{
				node:    domain.DrilldownNode{Key: row.MeterCategory, Label: row.MeterCategory, Pickable: true},
				subcats: map[string]*subcatAcc{},
			}
			cats[row.MeterCategory] = cat
		}
		addCost(&cat.node, row)

		subKey := facts.SubcategoryGlobalKey(row.MeterCategory, row.MeterSubcategory)
		sub, ok := cat.subcats[subKey]
		if !ok {
			sub = &subcatAcc{
				node:   domain.DrilldownNode{Key: subKey, Label: row.MeterSubcategory, Pickable: true},
				meters: map[string]*meterAcc{},
			}
			cat.subcats[subKey] = sub
		}
		addCost(&sub.node, row)

		meter, ok := sub.meters[row.MeterName]
		if !ok {
			meter = &meterAcc{
				node:      domain.DrilldownNode{Key: row.MeterName, Label: row.MeterName, Pickable: true},
				resources: map[string]*domain.DrilldownNode{},
			}
			sub.meters[row.MeterName] = meter
		}
		addCost(&meter.node, row)

		res, ok := meter.resources[row.ResourceKey]
		if !ok {
			res = &domain.DrilldownNode{
				Key:      row.ResourceKey,
				Label:    row.ResourceName,
				Pickable: row.HasResourceID(),
			}
			meter.resources[row.ResourceKey] = res
		}
		addCost(res, row)
	}

	out := make([]domain.DrilldownNode, 0, len(cats))
	for _, cat := range cats {
		node := cat.node
		for _, sub := range cat.subcats {
			subNode := sub.node
			for _, meter := range sub.meters {
				meterNode := meter.node
				for _, res := range meter.resources {
					meterNode.Children = append(meterNode.Children, *res)
				}
				sortNodes(meterNode.Children)
				subNode.Children = append(subNode.Children, meterNode)
			}
			sortNodes(subNode.Children)
			node.Children = append(node.Children, subNode)
		}
		sortNodes(node.Children)
		out = append(out, node)
	}
	sortNodes(out)
	return out
}

func addCost(node *domain.DrilldownNode, row domain.FactRow) {
	node.CostLocal += row.CostLocal
	node.CostUSD += row.CostUSD
	node.ItemCount++
}

func sortNodes(nodes []domain.DrilldownNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].CostLocal != nodes[j].CostLocal {
			return nodes[i].CostLocal > nodes[j].CostLocal
		}
		return nodes[i].Key < nodes[j].Key
	})
}
