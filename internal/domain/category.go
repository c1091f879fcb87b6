package domain

// DefaultCategory is assigned to submissions that name no category.
const DefaultCategory = "uncategorized"

// UnknownCategoryName is displayed for slugs outside the built-in set.
const UnknownCategoryName = "未分类"

// Category is a fixed browse section.
type Category struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

var builtinCategories = []Category{
	{Slug: "foundation-models", Name: "基础模型", DisplayOrder: 1, IsActive: true},
	{Slug: "coding", Name: "代码编程", DisplayOrder: 2, IsActive: true},
	{Slug: "image", Name: "图像处理", DisplayOrder: 3, IsActive: true},
	{Slug: "writing", Name: "写作助手", DisplayOrder: 4, IsActive: true},
	{Slug: "office", Name: "办公工具", DisplayOrder: 5, IsActive: true},
	{Slug: "knowledge", Name: "知识管理", DisplayOrder: 6, IsActive: true},
	{Slug: "research", Name: "科研学术", DisplayOrder: 7, IsActive: true},
	{Slug: "robotics", Name: "机器人", DisplayOrder: 8, IsActive: true},
	{Slug: "entertainment", Name: "娱乐陪伴", DisplayOrder: 9, IsActive: true},
}

// Categories returns a copy of the built-in categories in display order.
func Categories() []Category {
	out := make([]Category, len(builtinCategories))
	copy(out, builtinCategories)
	return out
}

// IsKnownCategory reports whether slug is a built-in category.
func IsKnownCategory(slug string) bool {
	for _, c := range builtinCategories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// CategoryName returns the display name for slug.
func CategoryName(slug string) string {
	for _, c := range builtinCategories {
		if c.Slug == slug {
			return c.Name
		}
	}
	return UnknownCategoryName
}
