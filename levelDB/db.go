package levelDB

import (
	"errors"

	"github.com/cloudflare/cfssl/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// 写入接口，DB 与 Batch 均实现，便于把多个状态写在同一个批次里
type Writer interface {
	Put(key string, value []byte)
}

type DB struct {
	db *leveldb.DB
}

type Batch struct {
	b *leveldb.Batch
}

func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Error("db init err:", err)
		return nil, err
	}
	return &DB{db: db}, nil
}

// 内存数据库，测试使用
func OpenMem() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

// key 不存在时返回 (nil, nil)
func (d *DB) Get(key string) ([]byte, error) {
	data, err := d.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("db get err:", err)
		return nil, err
	}
	return data, nil
}

func (d *DB) Put(key string, value []byte) {
	if err := d.db.Put([]byte(key), value, nil); err != nil {
		log.Error("db put err:", err)
	}
}

func (d *DB) Delete(key string) error {
	err := d.db.Delete([]byte(key), nil)
	if err != nil {
		log.Error("db delete err", err)
	}
	return err
}

func (d *DB) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

func (b *Batch) Put(key string, value []byte) {
	b.b.Put([]byte(key), value)
}

func (b *Batch) Len() int {
	return b.b.Len()
}

// 原子写入一个批次
func (d *DB) Write(b *Batch) error {
	if err := d.db.Write(b.b, nil); err != nil {
		log.Error("db batch write err:", err)
		return err
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
