package catalog

// Index 目录索引
// 设计说明:
// 1. entries按ItemCode存储所有条目,并保留首次注册顺序(目录网格按此顺序展示)
// 2. variants是两级索引: 别名key → (变体ItemCode → 变体)
//    模板的每一个已知标识(编码、名称、别名字段)都是一个key,
//    同一个变体会被放进所有key对应的桶里,调用方拿到任意一个标识都能查到变体
// 3. 目录重新加载时整体重建(Reset),不做增量修补,避免部分key残留旧数据
// 4. 非并发安全,由会话锁保证单写者
type Index struct {
	entries map[string]*Entry
	order   []string

	variants map[string]*bucket
	keyOrder []string
}

// bucket 单个别名key下的变体集合(保持插入顺序)
type bucket struct {
	order []string
	byID  map[string]*Entry
}

func newBucket() *bucket {
	return &bucket{byID: make(map[string]*Entry)}
}

func (b *bucket) put(v *Entry) {
	if _, ok := b.byID[v.ItemCode]; !ok {
		b.order = append(b.order, v.ItemCode)
	}
	b.byID[v.ItemCode] = v
}

// NewIndex 创建空索引
func NewIndex() *Index {
	return &Index{
		entries:  make(map[string]*Entry),
		variants: make(map[string]*bucket),
	}
}

// Reset 清空索引(目录整体重载前调用)
func (idx *Index) Reset() {
	idx.entries = make(map[string]*Entry)
	idx.order = nil
	idx.variants = make(map[string]*bucket)
	idx.keyOrder = nil
}

// Register 按ItemCode插入或覆盖条目
func (idx *Index) Register(e *Entry) {
	if e == nil || e.ItemCode == "" {
		return
	}
	if _, ok := idx.entries[e.ItemCode]; !ok {
		idx.order = append(idx.order, e.ItemCode)
	}
	idx.entries[e.ItemCode] = e
}

// Get 按标识查询条目,不存在返回nil
func (idx *Index) Get(id string) *Entry {
	if id == "" {
		return nil
	}
	return idx.entries[id]
}

// Entries 按注册顺序返回全部条目
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, 0, len(idx.order))
	for _, code := range idx.order {
		out = append(out, idx.entries[code])
	}
	return out
}

// Len 条目数量
func (idx *Index) Len() int {
	return len(idx.order)
}

// CacheVariants 缓存模板的变体
// 步骤:
// 1. 收集模板自身的全部标识,以及每个变体上指向模板的全部字段
// 2. 对并集中的每个key,把每个变体放进该key的桶
// 变体本身也注册进entries,保证按变体编码能直接查到
// 变体自己的编码不作为桶key: VariantsByKey(变体编码)返回空,按变体编码请用Get
func (idx *Index) CacheVariants(template *Entry, variants []*Entry) {
	if template == nil {
		return
	}

	keys := newKeySet()
	keys.add(templateKeys(template)...)
	for _, v := range variants {
		if v == nil {
			continue
		}
		keys.add(variantKeys(v)...)
	}

	for _, key := range keys.list {
		b, ok := idx.variants[key]
		if !ok {
			b = newBucket()
			idx.variants[key] = b
			idx.keyOrder = append(idx.keyOrder, key)
		}
		for _, v := range variants {
			if v == nil || v.ItemCode == "" {
				continue
			}
			b.put(v)
		}
	}

	for _, v := range variants {
		idx.Register(v)
	}
}

// VariantsFor 返回模板的全部已缓存变体
// 从模板任一标识可达的桶取并集,按变体编码去重,保持首次出现顺序
func (idx *Index) VariantsFor(template *Entry) []*Entry {
	if template == nil {
		return nil
	}
	return idx.collect(templateKeys(template))
}

// VariantsByKey 按任意别名查询变体(调用方只有一个标识时使用)
func (idx *Index) VariantsByKey(key string) []*Entry {
	if key == "" {
		return nil
	}
	return idx.collect([]string{key})
}

// AllVariants 返回全部桶中变体的去重并集
func (idx *Index) AllVariants() []*Entry {
	return idx.collect(idx.keyOrder)
}

// HasCachedVariants 模板是否已有缓存变体
func (idx *Index) HasCachedVariants(template *Entry) bool {
	for _, key := range templateKeys(template) {
		if b, ok := idx.variants[key]; ok && len(b.order) > 0 {
			return true
		}
	}
	return false
}

// TemplateOf 查找变体所属的模板
// 先按引用字段直接查entries,查不到再按模板别名匹配(如引用的是模板名称)
func (idx *Index) TemplateOf(variant *Entry) *Entry {
	if variant == nil {
		return nil
	}
	refs := variantKeys(variant)
	for _, ref := range refs {
		if t := idx.entries[ref]; t != nil && t.IsTemplate() {
			return t
		}
	}
	for _, code := range idx.order {
		t := idx.entries[code]
		if !t.IsTemplate() {
			continue
		}
		for _, key := range templateKeys(t) {
			for _, ref := range refs {
				if key == ref {
					return t
				}
			}
		}
	}
	return nil
}

func (idx *Index) collect(keys []string) []*Entry {
	seen := make(map[string]struct{})
	var out []*Entry
	for _, key := range keys {
		b, ok := idx.variants[key]
		if !ok {
			continue
		}
		for _, code := range b.order {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, b.byID[code])
		}
	}
	return out
}

// templateKeys 模板的全部已知标识
func templateKeys(t *Entry) []string {
	if t == nil {
		return nil
	}
	ks := newKeySet()
	ks.add(t.ItemCode, t.ItemName, t.VariantOf, t.TemplateItemCode, t.ParentItem)
	return ks.list
}

// variantKeys 变体上指向模板的全部字段
func variantKeys(v *Entry) []string {
	ks := newKeySet()
	ks.add(v.VariantOf, v.TemplateItemCode, v.ParentItem)
	return ks.list
}

type keySet struct {
	seen map[string]struct{}
	list []string
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[string]struct{})}
}

func (k *keySet) add(keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := k.seen[key]; ok {
			continue
		}
		k.seen[key] = struct{}{}
		k.list = append(k.list, key)
	}
}
