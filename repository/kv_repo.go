package repository

import (
	"database/sql"
	"errors"

	"ai_book_recommend/db"
)

// KVRepo 基于MySQL的键值存储，实现store.Store接口
// 限流状态和推荐缓存在多实例部署时通过它共享
type KVRepo struct{}

// NewKVRepo 创建MySQL键值存储
func NewKVRepo() *KVRepo {
	return &KVRepo{}
}

func (r *KVRepo) Get(key string) (string, bool, error) {
	var v string
	err := db.DB.QueryRow(`SELECT v FROM kv_entries WHERE k=?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *KVRepo) Set(key, value string) error {
	_, err := db.DB.Exec(`
        INSERT INTO kv_entries (k, v) VALUES (?, ?)
        ON DUPLICATE KEY UPDATE v=VALUES(v)
    `, key, value)
	return err
}

func (r *KVRepo) Delete(key string) error {
	_, err := db.DB.Exec(`DELETE FROM kv_entries WHERE k=?`, key)
	return err
}

func (r *KVRepo) Keys(prefix string) ([]string, error) {
	rows, err := db.DB.Query(`SELECT k FROM kv_entries WHERE k LIKE CONCAT(?, '%')`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
