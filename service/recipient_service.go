package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
)

// ErrRecipientNotFound 住户快照不存在
var ErrRecipientNotFound = errors.New("recipient not found")

// RecipientSelector 圈人参数：building 模式用 Building，individual 模式用 UserIDs
type RecipientSelector struct {
	Building string   `json:"building,omitempty"`
	UserIDs  []uint64 `json:"user_ids,omitempty"`
}

// RecipientPreview 撰写页预览：会发给多少人，其中多少人能收到邮件
type RecipientPreview struct {
	Mode          string `json:"mode"`
	Building      string `json:"building,omitempty"`
	Total         int    `json:"total"`
	EmailEligible int    `json:"email_eligible"`
}

// RecipientService 收件人解析 + 住户偏好
type RecipientService struct {
	*Service
}

func NewRecipientService(s *Service) *RecipientService {
	return &RecipientService{Service: s}
}

func (s *RecipientService) dao(ctx context.Context) *models.RecipientDAO {
	return models.NewRecipientDAO(s.DB.WithContext(ctx))
}

// NormalizeBuilding 楼栋选择器校验：大小写不敏感，只接受 A-D
func NormalizeBuilding(raw string) (string, error) {
	b := strings.ToUpper(strings.TrimSpace(raw))
	if b == "" {
		return "", newValidationError("building", "building required")
	}
	if !slices.Contains(cons.Buildings, b) {
		return "", newValidationError("building", "invalid building")
	}
	return b, nil
}

// dedupeIDs 去重、去 0，保持首次出现的顺序
func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolve 返回收件人 id 集合（无重复）
func (s *RecipientService) Resolve(ctx context.Context, mode string, sel RecipientSelector) ([]uint64, error) {
	rows, err := s.ResolveRecipients(ctx, mode, sel)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

// ResolveRecipients 同 Resolve，但一次查询带回邮箱和通知开关，邮件通道直接用
func (s *RecipientService) ResolveRecipients(ctx context.Context, mode string, sel RecipientSelector) ([]models.Recipient, error) {
	var (
		rows []models.Recipient
		err  error
	)
	switch mode {
	case cons.RecipientModeAll:
		rows, err = s.dao(ctx).ListDirectory()
	case cons.RecipientModeBuilding:
		b, verr := NormalizeBuilding(sel.Building)
		if verr != nil {
			return nil, verr
		}
		rows, err = s.dao(ctx).ListByBuilding(b)
	case cons.RecipientModeIndividual:
		ids := dedupeIDs(sel.UserIDs)
		if len(ids) == 0 {
			return nil, newValidationError("user_ids", "no recipients selected")
		}
		rows, err = s.dao(ctx).FindByIDs(ids)
		if err == nil && len(rows) != len(ids) {
			s.log().Warn("dropping unknown recipients",
				"requested", len(ids), "found", len(rows), "missing", missingIDs(ids, rows))
		}
	default:
		return nil, newValidationError("recipient_mode", fmt.Sprintf("unknown recipient mode %q", mode))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recipients (%s): %w", mode, err)
	}
	if len(rows) == 0 {
		return nil, &ResolutionError{Mode: mode, Msg: "no recipients matched"}
	}
	return rows, nil
}

func missingIDs(want []uint64, got []models.Recipient) []uint64 {
	have := make(map[uint64]struct{}, len(got))
	for _, r := range got {
		have[r.UserID] = struct{}{}
	}
	var out []uint64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Preview 撰写页实时预览。空结果不报错，返回 0。
func (s *RecipientService) Preview(ctx context.Context, mode string, sel RecipientSelector) (*RecipientPreview, error) {
	p := &RecipientPreview{Mode: mode}
	if mode == cons.RecipientModeBuilding {
		p.Building = strings.ToUpper(strings.TrimSpace(sel.Building))
	}
	rows, err := s.ResolveRecipients(ctx, mode, sel)
	if err != nil {
		if IsResolution(err) {
			return p, nil
		}
		return nil, err
	}
	p.Total = len(rows)
	for i := range rows {
		if rows[i].EmailEligible() {
			p.EmailEligible++
		}
	}
	return p, nil
}

// UpsertRecipient 身份服务同步过来的住户快照
func (s *RecipientService) UpsertRecipient(ctx context.Context, r *models.Recipient) error {
	if r == nil || r.UserID == 0 {
		return newValidationError("user_id", "user_id is required")
	}
	r.UnitNumber = strings.TrimSpace(r.UnitNumber)
	if r.UnitNumber == "" {
		return newValidationError("unit_number", "unit_number is required")
	}
	email, err := models.NormalizeEmail(r.Email)
	if err != nil {
		return newValidationError("email", "invalid email address")
	}
	r.Email = email
	return s.dao(ctx).Upsert(r)
}

// UpdatePreferences 住户修改邮件通知 / 通讯录公开
func (s *RecipientService) UpdatePreferences(ctx context.Context, userID uint64, emailEnabled, directoryOptIn bool) (*models.Recipient, error) {
	dao := s.dao(ctx)
	if err := dao.UpdatePreferences(userID, emailEnabled, directoryOptIn); err != nil {
		if dao.IsNotFound(err) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrRecipientNotFound)
		}
		return nil, err
	}
	return dao.FindByID(userID)
}

// ListDirectory 通讯录（仅公开的住户）
func (s *RecipientService) ListDirectory(ctx context.Context) ([]models.Recipient, error) {
	return s.dao(ctx).ListDirectory()
}
