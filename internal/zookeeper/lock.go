// internal/zookeeper/lock.go
package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/souq/locks"

// ErrLockHeld 表示锁当前被其他实例持有（仅 TryLock 返回）。
var ErrLockHeld = errors.New("lock is held by another instance")

// DistributedLock 基于临时顺序节点实现的分布式锁。
// 清扫进程用它做 leader 选举：抢不到锁的实例直接跳过本轮，
// 清扫本身是幂等的，跳过只是降级，不会破坏状态。
type DistributedLock struct {
	conn     *Conn
	path     string // 例如 /souq/locks/sweeper
	lockNode string // 获得锁后自己创建的节点
}

// NewDistributedLock 创建一个针对 resourceID 的锁实例。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	if err := conn.EnsurePath(lockPath); err != nil {
		return nil, fmt.Errorf("failed to ensure lock path %s: %w", lockPath, err)
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

// TryLock 尝试获取锁，拿不到立刻返回 ErrLockHeld，不等待。
func (l *DistributedLock) TryLock() error {
	isLowest, err := l.createAndCheck()
	if err != nil {
		return err
	}
	if !isLowest {
		// 不是最小节点，放弃本次竞争
		_ = l.Unlock()
		return ErrLockHeld
	}
	return nil
}

// Lock 获取锁，拿不到则阻塞等待（监听前一个节点的删除事件）。
func (l *DistributedLock) Lock() error {
	for {
		isLowest, err := l.createAndCheck()
		if err != nil {
			return err
		}
		if isLowest {
			return nil
		}

		prevNodePath, err := l.previousNode()
		if err != nil {
			return err
		}

		exists, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			// 前一个节点在设置 watch 之前已经消失，重新竞争
			continue
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			_ = l.Unlock()
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return nil
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	return nil
}

// createAndCheck 创建自己的临时顺序节点（若还没有），并判断是否为最小节点。
func (l *DistributedLock) createAndCheck() (bool, error) {
	if l.lockNode == "" {
		nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
		if err != nil {
			return false, fmt.Errorf("failed to create sequential node: %w", err)
		}
		l.lockNode = nodePath
	}

	children, _, err := l.conn.Children(l.path)
	if err != nil {
		return false, fmt.Errorf("failed to list lock nodes: %w", err)
	}
	sort.Strings(children)

	myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
	return len(children) > 0 && myNodeName == children[0], nil
}

// previousNode 找到排在自己前面的那个节点。
func (l *DistributedLock) previousNode() (string, error) {
	children, _, err := l.conn.Children(l.path)
	if err != nil {
		return "", err
	}
	sort.Strings(children)

	myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
	for i, child := range children {
		if child == myNodeName {
			if i == 0 {
				return "", errors.New("already the lowest node")
			}
			return l.path + "/" + children[i-1], nil
		}
	}
	return "", errors.New("own lock node not found among children")
}
