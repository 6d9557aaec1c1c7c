package runner

import "sort"

// Dispatch splits a PollBatch into ProcessUnits per the given strategy.
// It is pure: the same batch and strategy always produce the same
// units.
func Dispatch(batch PollBatch, strategy Strategy) []ProcessUnit {
	parts := sortedPartitions(batch.Partitions)

	if strategy == All {
		if len(batch.Records) == 0 {
			return nil
		}
		return []ProcessUnit{{
			Index:            0,
			CurrentPartition: parts[0],
			AllPartitions:    parts,
			Records:          batch.Records,
		}}
	}

	units := make([]ProcessUnit, 0, len(parts))
	for i, p := range parts {
		var records []Record
		for _, r := range batch.Records {
			if r.Partition == p.Partition && r.Topic == p.Topic {
				records = append(records, r)
			}
		}
		if len(records) == 0 {
			continue
		}
		units = append(units, ProcessUnit{
			Index:            i,
			CurrentPartition: p,
			AllPartitions:    parts,
			Records:          records,
		})
	}
	return units
}

// sortedPartitions returns the batch's partition set in a deterministic,
// stable order (lexicographic by topic then partition number), used as
// the All strategy's tie-break for CurrentPartition and as the stable
// iteration order OnePerPartition's Index is assigned from.
func sortedPartitions(set map[PartitionID]struct{}) []PartitionID {
	parts := make([]PartitionID, 0, len(set))
	for p := range set {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].Topic != parts[j].Topic {
			return parts[i].Topic < parts[j].Topic
		}
		return parts[i].Partition < parts[j].Partition
	})
	return parts
}
