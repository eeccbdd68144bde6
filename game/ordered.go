package game

// ordered 保持插入顺序的 id→值 映射，遍历顺序即碰撞与广播的顺序
type ordered[V any] struct {
	items map[string]V
	keys  []string
}

func newOrdered[V any]() ordered[V] {
	return ordered[V]{items: make(map[string]V)}
}

func (o *ordered[V]) get(id string) (V, bool) {
	v, ok := o.items[id]
	return v, ok
}

func (o *ordered[V]) set(id string, v V) {
	if _, ok := o.items[id]; !ok {
		o.keys = append(o.keys, id)
	}
	o.items[id] = v
}

func (o *ordered[V]) del(id string) bool {
	if _, ok := o.items[id]; !ok {
		return false
	}
	delete(o.items, id)
	for i, k := range o.keys {
		if k == id {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *ordered[V]) len() int { return len(o.keys) }

// values 返回当前顺序下的值切片（副本），遍历过程中可安全增删
func (o *ordered[V]) values() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.items[k])
	}
	return out
}

func (o *ordered[V]) ids() []string {
	return append([]string(nil), o.keys...)
}
