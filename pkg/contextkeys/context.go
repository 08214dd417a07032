package contextkeys

type contextKey string

// DBContextKey holds the *gorm.DB (pool or transaction) for the request.
const DBContextKey = contextKey("db")

// AdminEmailKey holds the verified admin identity set by the session gate.
const AdminEmailKey = contextKey("admin_email")
