package service

import (
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

func shardStats(in []shardmap.ShardStats) []metric.ShardStat {
	out := make([]metric.ShardStat, len(in))
	for i, st := range in {
		out[i] = metric.ShardStat{
			Index:     int(st.Index),
			Allocated: st.State == shardmap.Allocated,
			Capacity:  st.Capacity,
			Len:       st.Len,
		}
	}
	return out
}
