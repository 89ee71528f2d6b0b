package analysis

// AggregateAdmin sums the stored admin blocks of all reports into one
// dashboard view. Blocks come from decoded JSON, so numbers arrive as
// float64; malformed entries are skipped instead of failing the dashboard.
func AggregateAdmin(blocks []map[string]any) AdminMetrics {
	total := ZeroAdminMetrics()
	for _, block := range blocks {
		addHourBuckets(&total, block["timestampLeakage"])
		addSocial(&total, block["socialContextLeakage"])
		addNamed(total.ProfessionalLiabilitySignals, block["professionalLiabilitySignals"])
		addNamed(total.LocationLeakageSignals, block["locationLeakageSignals"])
	}
	return total
}

func addHourBuckets(total *AdminMetrics, v any) {
	entries, _ := v.([]any)
	for _, e := range entries {
		bucket, ok := e.(map[string]any)
		if !ok {
			continue
		}
		hour := intFrom(bucket["hour"])
		if hour < 0 || hour > 23 {
			continue
		}
		total.TimestampLeakage[hour].Count += intFrom(bucket["count"])
	}
}

func addSocial(total *AdminMetrics, v any) {
	social, ok := v.(map[string]any)
	if !ok {
		return
	}
	total.SocialContextLeakage.RelationshipLabels += intFrom(social["relationshipLabels"])
	total.SocialContextLeakage.Handles += intFrom(social["handles"])
	total.SocialContextLeakage.Emails += intFrom(social["emails"])
	total.SocialContextLeakage.PhonePatterns += intFrom(social["phonePatterns"])
	total.SocialContextLeakage.NameEntities += intFrom(social["nameEntities"])
}

func addNamed(into []NamedCount, v any) {
	entries, _ := v.([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		for i := range into {
			if into[i].Name == name {
				into[i].Count += intFrom(entry["count"])
				break
			}
		}
	}
}

func intFrom(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
