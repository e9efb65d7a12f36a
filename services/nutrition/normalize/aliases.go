package normalize

import (
	"nutrisync-backend/lib/textutil"
	"sort"

	"github.com/antzucaro/matchr"
)

// export versions have renamed nutrient columns over time ("Calories,
// cals" vs "Calories", "Sodium, mg" vs "Sodium"); each canonical key
// carries the accepted names in priority order. The table is built once
// at normalizer setup, not re-derived per row.
type nutrientAlias struct {
	key     string
	aliases []string
}

var defaultNutrients = []nutrientAlias{
	{key: "calories", aliases: []string{"Calories, cals", "Calories"}},
	{key: "total_fat", aliases: []string{"Total Fat, g", "Total Fat", "Fat, g", "Fat"}},
	{key: "carbs", aliases: []string{"Carbs, g", "Carbs", "Carbohydrates"}},
	{key: "protein", aliases: []string{"Protein, g", "Protein"}},
	{key: "sat_fat", aliases: []string{"Sat. Fat, g", "Sat. Fat", "Saturated Fat"}},
	{key: "trans_fat", aliases: []string{"Trans Fat, g", "Trans Fat"}},
	{key: "net_carbs", aliases: []string{"Net Carbs, g", "Net Carbs"}},
	{key: "fiber", aliases: []string{"Fiber, g", "Fiber"}},
	{key: "sodium", aliases: []string{"Sodium, mg", "Sodium"}},
	{key: "calcium", aliases: []string{"Calcium, mg", "Calcium"}},
}

// columns drift in small ways between exports ("Calcium, mg%"); accept
// a near-exact fuzzy match before giving up on a nutrient
const aliasSimilarityThreshold = 0.92

type AliasTable struct {
	nutrients []nutrientAlias
	// canonical key per normalized alias
	lookup map[string]string
}

func NewAliasTable() *AliasTable {
	table := &AliasTable{
		nutrients: defaultNutrients,
		lookup:    map[string]string{},
	}
	for _, n := range defaultNutrients {
		for _, alias := range n.aliases {
			normalized := textutil.NormalizeLabel(alias)
			if _, taken := table.lookup[normalized]; !taken {
				table.lookup[normalized] = n.key
			}
		}
	}
	return table
}

// Resolve maps each canonical nutrient key to the column label carrying
// it among the given labels, earlier aliases winning. Nutrients with no
// matching column are absent from the result.
func (t *AliasTable) Resolve(labels []string) map[string]string {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)

	normalized := make([]string, len(sorted))
	for i, label := range sorted {
		normalized[i] = textutil.NormalizeLabel(label)
	}

	resolved := map[string]string{}
	for _, nutrient := range t.nutrients {
	aliasLoop:
		for _, alias := range nutrient.aliases {
			target := textutil.NormalizeLabel(alias)
			for i, label := range normalized {
				if label == target {
					resolved[nutrient.key] = sorted[i]
					break aliasLoop
				}
			}
		}
		if _, ok := resolved[nutrient.key]; ok {
			continue
		}

		best := ""
		var bestSimilarity float64
		for _, alias := range nutrient.aliases {
			target := textutil.NormalizeLabel(alias)
			for i, label := range normalized {
				sim := matchr.JaroWinkler(label, target, false)
				if sim > bestSimilarity {
					bestSimilarity = sim
					best = sorted[i]
				}
			}
		}
		if bestSimilarity >= aliasSimilarityThreshold {
			resolved[nutrient.key] = best
		}
	}

	return resolved
}
