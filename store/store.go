// Package store 定义限流状态和推荐缓存使用的键值存储抽象
// 原实现把这些状态放在客户端本地存储里，这里抽象成可注入的接口，
// 服务端部署时可替换为MySQL实现（repository.KVRepo）
package store

// Store 按用户ID命名空间的键值存储
type Store interface {
	// Get 读取键值，第二个返回值表示键是否存在
	Get(key string) (string, bool, error)

	// Set 写入键值，已存在时无条件覆盖
	Set(key, value string) error

	// Delete 删除键，键不存在时不报错
	Delete(key string) error

	// Keys 返回所有以prefix开头的键
	Keys(prefix string) ([]string, error)
}
