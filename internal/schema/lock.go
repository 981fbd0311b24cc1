package schema

import "sync"

// NameLocker 按表名串行化 create/rename/delete 临界区。
// “先查存在再动手”的序列在数据库层面不是原子的，
// 进程内用每表名一把互斥锁补齐；多实例部署再叠加 Redis 分布式锁
type NameLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewNameLocker() *NameLocker {
	return &NameLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock 获取指定表名的锁，返回解锁函数
func (l *NameLocker) Lock(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
