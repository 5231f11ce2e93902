package metadata

// metadata 表中 key 列使用的键
const (
	// LastReconcileAtKey 记录最近一次每日汇总对账完成的时间 (RFC3339)
	LastReconcileAtKey = "last_reconcile_at"

	// LastReconcileCorrectedKey 记录最近一次对账修正的汇总行数
	LastReconcileCorrectedKey = "last_reconcile_corrected"

	// SchemaVersionKey 记录 migrate 最后一次成功执行时的表结构版本
	SchemaVersionKey = "schema_version"
)
