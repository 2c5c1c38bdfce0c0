package statistics

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
)

// ProcStat holds the fields of /proc/[pid]/stat the player reports each
// second.
type ProcStat struct {
	// The process ID.
	PID int
	// The filename of the executable.
	Comm string
	// The process state.
	State string
	// Amount of time scheduled in user mode, in clock ticks.
	UTime uint
	// Amount of time scheduled in kernel mode, in clock ticks.
	STime uint
	// Number of threads in this process.
	NumThreads int
	// Virtual memory size in bytes.
	VSize uint64
	// Resident set size in pages.
	RSS uint64
}

// VirtualMemory returns the virtual memory size in bytes.
func (s ProcStat) VirtualMemory() uint64 {
	return s.VSize
}

// ResidentMemory returns the resident memory size in bytes.
func (s ProcStat) ResidentMemory() uint64 {
	return s.RSS * uint64(os.Getpagesize())
}

// CurrentProcStat 当前进程的stat数据
func CurrentProcStat() (ProcStat, error) {
	pid := os.Getpid()
	statfile := "/proc/" + strconv.Itoa(pid) + "/stat"
	return NewProcStat(statfile, pid)
}

// NewProcStat 生成一个进程的stat数据
func NewProcStat(statfile string, pid int) (ProcStat, error) {
	f, err := os.Open(statfile)
	if err != nil {
		return ProcStat{}, err
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return ProcStat{}, err
	}

	var (
		ignoreInt  int
		ignoreUint uint
		ignoreU64  uint64

		s = ProcStat{PID: pid}
		l = bytes.Index(data, []byte("("))
		r = bytes.LastIndex(data, []byte(")"))
	)

	if l < 0 || r < 0 {
		return ProcStat{}, fmt.Errorf(
			"unexpected format, couldn't extract comm: %s",
			data,
		)
	}

	s.Comm = string(data[l+1 : r])
	_, err = fmt.Fscan(
		bytes.NewBuffer(data[r+2:]),
		&s.State,
		&ignoreInt,  // ppid
		&ignoreInt,  // pgrp
		&ignoreInt,  // session
		&ignoreInt,  // tty
		&ignoreInt,  // tpgid
		&ignoreUint, // flags
		&ignoreUint, // minflt
		&ignoreUint, // cminflt
		&ignoreUint, // majflt
		&ignoreUint, // cmajflt
		&s.UTime,
		&s.STime,
		&ignoreInt, // cutime
		&ignoreInt, // cstime
		&ignoreInt, // priority
		&ignoreInt, // nice
		&s.NumThreads,
		&ignoreInt, // itrealvalue
		&ignoreU64, // starttime
		&s.VSize,
		&s.RSS,
	)
	if err != nil {
		return ProcStat{}, err
	}

	return s, nil
}
