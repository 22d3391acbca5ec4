// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データ読み込みから学習・予測までの各操作が返すエラー種別（ParseError、SchemaError、
// FitError、ShapeError、StateError）を構造化された型として定義します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("tabfit-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、目的変数が定数で決定係数の分母が0になる場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ImputationWarning は欠損値を補完できない列があった場合の警告です。
// 全ての値が欠損している列は平均・最頻値が定義できないため、欠損のまま残されます。
type ImputationWarning struct {
	Columns []string
	Reason  string
}

func (w *ImputationWarning) Error() string {
	return fmt.Sprintf("columns [%s] left unimputed: %s", strings.Join(w.Columns, ", "), w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ImputationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("columns", w.Columns).
		Str("reason", w.Reason).
		Str("type", "ImputationWarning")
}

// NewImputationWarning は新しいImputationWarningを作成します。
func NewImputationWarning(columns []string, reason string) *ImputationWarning {
	return &ImputationWarning{Columns: columns, Reason: reason}
}

// ===========================================================================
//
//	操作単位のエラー種別
//
// ===========================================================================

// ParseError は入力テーブルの形式が不正な場合のエラーです。
type ParseError struct {
	Source string // "csv", "xlsx", "request"
	Line   int    // 1始まりの行番号（不明な場合は0）
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("tabfit: malformed %s input", e.Source)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("line", e.Line).
		Str("reason", e.Reason).
		Str("type", KindParse)
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(source string, line int, reason string, err error) error {
	return errors.WithStack(&ParseError{Source: source, Line: line, Reason: reason, Err: err})
}

// SchemaError は参照された列が存在しない、数値/カテゴリの役割が合わない、
// あるいは特徴量・目的変数の選択が空である場合のエラーです。
type SchemaError struct {
	Op     string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("tabfit: %s: column '%s': %s", e.Op, e.Column, e.Reason)
	}
	return fmt.Sprintf("tabfit: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", KindSchema)
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(op, column, reason string) error {
	return errors.WithStack(&SchemaError{Op: op, Column: column, Reason: reason})
}

// FitError は学習データが0行である、または計画行列が退化している場合のエラーです。
type FitError struct {
	Op     string
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tabfit: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("tabfit: %s: %s", e.Op, e.Reason)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", KindFit)
}

// NewFitError は新しいFitErrorを作成し、スタックトレースを付与します。
func NewFitError(op, reason string, err error) error {
	return errors.WithStack(&FitError{Op: op, Reason: reason, Err: err})
}

// ShapeError は予測入力の値の数が学習時の特徴量数と異なる場合のエラーです。
type ShapeError struct {
	Op       string
	Expected int
	Got      int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tabfit: %s: inputs don't match the trained features (expected %d values, got %d)", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", KindShape)
}

// NewShapeError は新しいShapeErrorを作成し、スタックトレースを付与します。
func NewShapeError(op string, expected, got int) error {
	return errors.WithStack(&ShapeError{Op: op, Expected: expected, Got: got})
}

// StateError は前提となる状態（データの読み込み、モデルの学習）が存在しない場合のエラーです。
type StateError struct {
	Op      string
	Missing string // "dataset", "model"
}

func (e *StateError) Error() string {
	return fmt.Sprintf("tabfit: %s: no %s available", e.Op, e.Missing)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StateError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("missing", e.Missing).
		Str("type", KindState)
}

// NewStateError は新しいStateErrorを作成し、スタックトレースを付与します。
func NewStateError(op, missing string) error {
	return errors.WithStack(&StateError{Op: op, Missing: missing})
}

// エラー種別名。ログ属性やHTTPステータスの対応付けに使用します。
const (
	KindParse   = "ParseError"
	KindSchema  = "SchemaError"
	KindFit     = "FitError"
	KindShape   = "ShapeError"
	KindState   = "StateError"
	KindUnknown = "UnknownError"
)

// KindOf はエラーチェーンから操作単位のエラー種別名を返します。
// どの種別にも該当しない場合はKindUnknownを返します。
func KindOf(err error) string {
	var (
		parseErr  *ParseError
		schemaErr *SchemaError
		fitErr    *FitError
		shapeErr  *ShapeError
		stateErr  *StateError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &fitErr):
		return KindFit
	case errors.As(err, &shapeErr):
		return KindShape
	case errors.As(err, &stateErr):
		return KindState
	default:
		return KindUnknown
	}
}

// ===========================================================================
//
//	推定器のエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tabfit: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("tabfit: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tabfit: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tabfit: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("tabfit: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// WithHint はユーザー向けの対処方法をエラーに付与します。
// ヒントはError()の文字列には含まれず、Hintsで取り出せます。
func WithHint(err error, hint string) error {
	return errors.WithHint(err, hint)
}

// Hints はエラーチェーンに付与された全てのヒントを改行区切りで返します。
func Hints(err error) string {
	return errors.FlattenHints(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異値分解に失敗した場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
