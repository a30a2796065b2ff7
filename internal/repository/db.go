package repository

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/user/moovie-catalog/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBOptions 连接池与日志配置
type DBOptions struct {
	MaxOpenConns int
	MaxIdleConns int
	Logger       logger.Interface
}

// sqlitePrefix 以该前缀开头的 DATABASE_URL 使用本地 SQLite 文件（开发 / 测试）
const sqlitePrefix = "sqlite://"

// InitDB 初始化数据库连接
// 底层连接由 lib/pq 驱动建立，再交给 gorm 使用
func InitDB(databaseURL string, opts DBOptions) (*gorm.DB, error) {
	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		return OpenSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix), opts.Logger)
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 25
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)

	cfg := &gorm.Config{}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("初始化 gorm 失败: %w", err)
	}

	return db, nil
}

// OpenSQLite 打开 SQLite 数据库
// SQLite 只允许单个写连接，这里把连接池限制为 1 并设置 busy timeout
func OpenSQLite(path string, log logger.Interface) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if log != nil {
		cfg.Logger = log
	} else {
		cfg.Logger = logger.Discard
	}
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), cfg)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate 创建/更新表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Movie{}, &model.User{}, &model.RatingEntry{})
}

// Repositories 仓库集合
type Repositories struct {
	DB     *gorm.DB
	User   *UserRepository
	Movie  *MovieRepository
	Ledger *RatingLedgerRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:     db,
		User:   NewUserRepository(db),
		Movie:  NewMovieRepository(db),
		Ledger: NewRatingLedgerRepository(db),
	}
}
