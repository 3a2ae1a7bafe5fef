package services

import (
	"encoding/base64"
	"encoding/json"

	"dramaweb/models"

	"github.com/samber/lo"
)

// refKeys 详情页需要的字段，其余字段不放进链接
var refKeys = lo.Flatten([][]string{
	idKeys, titleKeys, imageKeys, descriptionKeys,
	episodeCountKeys, yearKeys, scoreKeys,
})

// EncodeRef 把列表中的记录压缩进详情链接，避免详情页重复请求
func EncodeRef(item models.Item) string {
	if item == nil {
		return ""
	}
	picked := lo.PickByKeys(item, refKeys)
	if len(picked) == 0 {
		return ""
	}
	raw, err := json.Marshal(picked)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeRef 解析 EncodeRef 的结果
func DecodeRef(ref string) (models.Item, bool) {
	if ref == "" {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(ref)
	if err != nil {
		return nil, false
	}
	payload, err := decodeJSON(raw)
	if err != nil {
		return nil, false
	}
	m, ok := payload.(map[string]any)
	return m, ok
}
