package reservation

import "sort"

// 允许参与众筹和退款的地址集合
type Whitelist struct {
	Members map[string]bool `json:"members"`
}

func NewWhitelist() Whitelist {
	return Whitelist{Members: map[string]bool{}}
}

// 重复添加不报错
func (w Whitelist) Add(address string) {
	w.Members[address] = true
}

// 删除不存在的地址不报错
func (w Whitelist) Remove(address string) {
	delete(w.Members, address)
}

func (w Whitelist) IsMember(address string) bool {
	return w.Members[address]
}

func (w Whitelist) List() []string {
	list := make([]string, 0, len(w.Members))
	for address := range w.Members {
		list = append(list, address)
	}
	sort.Strings(list)
	return list
}

func (w Whitelist) Copy() Whitelist {
	c := NewWhitelist()
	for address := range w.Members {
		c.Members[address] = true
	}
	return c
}
