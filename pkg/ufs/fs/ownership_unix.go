//go:build !windows

package fs

import (
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

var (
	userCacheMu sync.Mutex
	uidNames    = map[uint32]string{}
	gidNames    = map[uint32]string{}
)

// ownership resolves owner and group names from the stat result.
// Falls back to numeric IDs when the name lookup fails.
func ownership(info os.FileInfo) (owner, group string) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}
	return lookupUser(st.Uid), lookupGroup(st.Gid)
}

func lookupUser(uid uint32) string {
	userCacheMu.Lock()
	defer userCacheMu.Unlock()
	if name, ok := uidNames[uid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	uidNames[uid] = name
	return name
}

func lookupGroup(gid uint32) string {
	userCacheMu.Lock()
	defer userCacheMu.Unlock()
	if name, ok := gidNames[gid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(name); err == nil {
		name = g.Name
	}
	gidNames[gid] = name
	return name
}
