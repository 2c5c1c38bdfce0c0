package statistics

import (
	"fmt"
)

// Bitrate 码率统计对象,用于统计源流每秒摄入字节数
type Bitrate struct {
	statistic *PeriodicStatistic
}

// NewBitrate ...
func NewBitrate() *Bitrate {
	return &Bitrate{
		statistic: NewPeriodicStatistic(DefaultStatGridNum, 1),
	}
}

// Add ...
func (b *Bitrate) Add(size uint64) {
	b.statistic.Stat(int64(size))
}

// GetBitrate 每秒平均字节数
func (b *Bitrate) GetBitrate() uint64 {
	return uint64(b.statistic.Avg())
}

func (b *Bitrate) String() string {
	return fmt.Sprintf("%dkb/s", b.statistic.Avg()/1024)
}
