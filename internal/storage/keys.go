package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// BuildKey 生成对象存储 key：{ownerID}/{上传毫秒时间戳}-{原始文件名}。
// 时间戳保证同名文件不冲突，owner 前缀保证用户之间天然隔离。
func BuildKey(ownerID, filename string, uploadedAt time.Time) string {
	return fmt.Sprintf("%s/%d-%s", ownerID, uploadedAt.UnixMilli(), sanitizeFilename(filename))
}

// OwnerOfKey 从 key 中解析出 owner ID，解析失败返回 false。
func OwnerOfKey(key string) (string, bool) {
	owner, rest, found := strings.Cut(key, "/")
	if !found || owner == "" || rest == "" {
		return "", false
	}
	return owner, true
}

// sanitizeFilename 去掉路径成分，避免用户提供的文件名污染 key 层级。
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "unnamed"
	}
	return base
}
