package ez

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio-site/internal/domain"
	mdw "portfolio-site/internal/transport/http/middleware"
	"portfolio-site/pkg/utils"
)

// Hook
type CrudHooks[T any] struct {
	BeforeSave   func(c *gin.Context, m, existing *T) error         // create 时 existing 为 nil
	AfterSave    func(c *gin.Context, tx *gorm.DB, m *T) error      // 同事务：关联表等
	BeforeDelete func(c *gin.Context, tx *gorm.DB, id string) error // 同事务：清理 join 表
}

type CrudConfig[T any] struct {
	DB    *gorm.DB
	Write EZ     // 写接口分组（POST/PUT/DELETE，由全局 Guard 把关）
	Read  *EZ    // 可选：后台读分组（含草稿，要求 ADMIN）
	Path  string // 例："/blogs"
	Name  string // 日志 op 前缀
	New   func() *T

	Hooks CrudHooks[T]

	IDField    string   // 默认 "ID"
	OwnerField string   // 写入当前会话用户 id，为空则不写
	Immutable  []string // update 时不允许覆盖的字段（计数器、创建时间等）
	OrderBy    string   // 后台列表排序，默认 created_at DESC
	IDGen      func() string
}

// 反射 & 工具
func stringField(obj any, name string) (*string, bool) {
	if name == "" {
		return nil, false
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	fv := v.Elem().FieldByName(name)
	if !fv.IsValid() || fv.Kind() != reflect.String || !fv.CanSet() {
		return nil, false
	}
	return fv.Addr().Interface().(*string), true
}

func setString(obj any, name, val string) bool {
	p, ok := stringField(obj, name)
	if ok {
		*p = val
	}
	return ok
}

// zeroFields 创建时清空不可写字段（计数器从 0 开始）
func zeroFields(obj any, names []string) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	for _, n := range names {
		if fv := v.Elem().FieldByName(n); fv.IsValid() && fv.CanSet() {
			fv.Set(reflect.Zero(fv.Type()))
		}
	}
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// Crud 注册后台内容的增删改（以及可选的后台列表/详情）
func Crud[T any](cfg CrudConfig[T]) {
	if cfg.IDField == "" {
		cfg.IDField = "ID"
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}
	if cfg.OrderBy == "" {
		cfg.OrderBy = "created_at DESC"
	}
	omit := append([]string{cfg.IDField, "CreatedAt", clause.Associations}, cfg.Immutable...)
	if cfg.OwnerField != "" {
		omit = append(omit, cfg.OwnerField)
	}
	log := cfg.Write.log

	// 同一事务内写主表，再由 AfterSave 维护关联
	save := func(c *gin.Context, m *T, write func(tx *gorm.DB) error) error {
		return cfg.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := write(tx); err != nil {
				return err
			}
			if cfg.Hooks.AfterSave != nil {
				return cfg.Hooks.AfterSave(c, tx, m)
			}
			return nil
		})
	}

	// Create
	cfg.Write.g.POST(cfg.Path, func(c *gin.Context) {
		op := cfg.Name + ".create"
		m := cfg.New()
		if err := c.ShouldBindJSON(m); err != nil {
			WriteError(c, log, op, bindError(err))
			return
		}
		zeroFields(m, cfg.Immutable)
		if !setString(m, cfg.IDField, cfg.IDGen()) {
			WriteError(c, log, op, Internal("id field not found", nil))
			return
		}
		if cfg.OwnerField != "" {
			s := mdw.SessionOf(c)
			if s == nil {
				WriteError(c, log, op, Unauthorized("Unauthorized"))
				return
			}
			setString(m, cfg.OwnerField, s.UserID)
		}
		if cfg.Hooks.BeforeSave != nil {
			if err := cfg.Hooks.BeforeSave(c, m, nil); err != nil {
				WriteError(c, log, op, err)
				return
			}
		}
		err := save(c, m, func(tx *gorm.DB) error { return tx.Omit(clause.Associations).Create(m).Error })
		if err != nil {
			WriteError(c, log, op, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	})

	// Update：整体替换可写字段（false/空串同样生效），计数器等保持不动
	cfg.Write.g.PUT(cfg.Path+"/:id", func(c *gin.Context) {
		op := cfg.Name + ".update"
		id := c.Param("id")

		existing := cfg.New()
		if err := cfg.DB.WithContext(c.Request.Context()).First(existing, "id = ?", id).Error; err != nil {
			WriteError(c, log, op, err)
			return
		}

		in := cfg.New()
		if err := c.ShouldBindJSON(in); err != nil {
			WriteError(c, log, op, bindError(err))
			return
		}
		setString(in, cfg.IDField, id)
		if p, ok := stringField(existing, cfg.OwnerField); ok {
			setString(in, cfg.OwnerField, *p)
		}
		if cfg.Hooks.BeforeSave != nil {
			if err := cfg.Hooks.BeforeSave(c, in, existing); err != nil {
				WriteError(c, log, op, err)
				return
			}
		}
		err := save(c, in, func(tx *gorm.DB) error {
			return tx.Model(existing).Select("*").Omit(omit...).Updates(in).Error
		})
		if err != nil {
			WriteError(c, log, op, err)
			return
		}
		out := cfg.New()
		if err := cfg.DB.WithContext(c.Request.Context()).Preload(clause.Associations).First(out, "id = ?", id).Error; err != nil {
			WriteError(c, log, op, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})

	// Delete
	cfg.Write.g.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
		op := cfg.Name + ".delete"
		id := c.Param("id")
		var affected int64
		err := cfg.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			m := cfg.New()
			if err := tx.First(m, "id = ?", id).Error; err != nil {
				return err
			}
			if cfg.Hooks.BeforeDelete != nil {
				if err := cfg.Hooks.BeforeDelete(c, tx, id); err != nil {
					return err
				}
			}
			res := tx.Select(clause.Associations).Delete(m)
			affected = res.RowsAffected
			return res.Error
		})
		if err != nil {
			WriteError(c, log, op, err)
			return
		}
		if affected == 0 {
			WriteError(c, log, op, domain.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	if cfg.Read == nil {
		return
	}
	admin := mdw.RequireRole(cfg.Read.guard, domain.RoleAdmin)

	// 后台列表（含未发布）
	cfg.Read.g.GET(cfg.Path, admin, func(c *gin.Context) {
		op := cfg.Name + ".list"
		offset := atoiDefault(c.Query("offset"), 0)
		limit := atoiDefault(c.Query("limit"), 20)
		if limit == 0 || limit > 100 {
			limit = 20
		}
		q := cfg.DB.WithContext(c.Request.Context()).Model(cfg.New()).Session(&gorm.Session{})
		var total int64
		if err := q.Count(&total).Error; err != nil {
			WriteError(c, log, op, err)
			return
		}
		var items []T
		if err := q.Preload(clause.Associations).Order(cfg.OrderBy).Order("id ASC").
			Offset(offset).Limit(limit).Find(&items).Error; err != nil {
			WriteError(c, log, op, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "offset": offset, "limit": limit})
	})

	cfg.Read.g.GET(cfg.Path+"/:id", admin, func(c *gin.Context) {
		m := cfg.New()
		if err := cfg.DB.WithContext(c.Request.Context()).Preload(clause.Associations).First(m, "id = ?", c.Param("id")).Error; err != nil {
			WriteError(c, log, cfg.Name+".get", err)
			return
		}
		c.JSON(http.StatusOK, m)
	})
}
