// Package calendar 负责“某一天”的计算。所有日期都以 YYYY-MM-DD 字符串保存。
package calendar

import (
	"fmt"
	"time"
)

// Layout 是日期在存储和API中的格式
const Layout = "2006-01-02"

// Calendar 在固定时区内计算日期，now 可在测试中替换
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New 创建一个使用系统时钟的 Calendar，loc 为 nil 时使用本地时区
func New(loc *time.Location) *Calendar {
	return WithClock(loc, time.Now)
}

// WithClock 创建一个使用指定时钟的 Calendar
func WithClock(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc, now: now}
}

// Now 返回当前时区内的当前时间
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today 返回今天的日期字符串
func (c *Calendar) Today() string {
	return c.Now().Format(Layout)
}

// DaysAgo 返回 n 天前的日期字符串，DaysAgo(0) 即今天
func (c *Calendar) DaysAgo(n int) string {
	return c.Now().AddDate(0, 0, -n).Format(Layout)
}

// Window 返回从今天往前 days 天的日期，最近的在前
func (c *Calendar) Window(days int) []string {
	if days <= 0 {
		return nil
	}
	dates := make([]string, days)
	today := c.Now()
	for i := range dates {
		dates[i] = today.AddDate(0, 0, -i).Format(Layout)
	}
	return dates
}

// Valid 判断字符串是否为合法的 YYYY-MM-DD 日期
func Valid(date string) bool {
	_, err := time.Parse(Layout, date)
	return err == nil
}

// Parse 解析日期字符串
func Parse(date string) (time.Time, error) {
	t, err := time.Parse(Layout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q，应为 YYYY-MM-DD: %w", date, err)
	}
	return t, nil
}
