// Package linear implements ordinary least squares regression.
package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabfit/core/model"
	"github.com/YuminosukeSato/tabfit/core/parallel"
	"github.com/YuminosukeSato/tabfit/metrics"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

const machineEpsilon = 2.220446049250313e-16

// LinearRegression は線形回帰モデル
//
// 係数は中心化したデータに対する最小ノルム最小二乗解として求める。
// 特異値分解を使うため、特徴量が標本数より多い場合や列が線形従属な場合でも解が一意に定まる
type LinearRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	// Rank は計画行列の数値的ランク
	Rank int

	// SingularValues は中心化した計画行列の特異値（降順）
	SingularValues []float64

	fitIntercept bool
	rcond        float64
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{fitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
//
// 切片ありの場合は X と y を列平均で中心化し、
// min ||Xc w - yc|| を満たす最小ノルムの w を特異値分解で解く。
// 切片は mean(y) - mean(X)·w となる
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	const op = "LinearRegression.Fit"

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewFitError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X, r, c); err != nil {
		return err
	}
	if err := errors.CheckMatrix(op, y, ry, 1); err != nil {
		return err
	}

	xMean := make([]float64, c)
	yMean := 0.0
	if lr.fitIntercept {
		for i := 0; i < r; i++ {
			yMean += y.At(i, 0)
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
		}
		yMean /= float64(r)
		for j := range xMean {
			xMean[j] /= float64(r)
		}
	}

	// 中心化した計画行列と目的変数
	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			yc.Set(i, 0, y.At(i, 0)-yMean)
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
		}
	})

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.NewFitError(op, "singular value decomposition did not converge", errors.ErrSingularMatrix)
	}

	rcond := lr.rcond
	if rcond <= 0 {
		rcond = machineEpsilon * float64(max(r, c))
	}
	rank := svd.Rank(rcond)

	weights := mat.NewVecDense(c, nil)
	if rank > 0 {
		var sol mat.Dense
		svd.SolveTo(&sol, yc, rank)
		for j := 0; j < c; j++ {
			weights.SetVec(j, sol.At(j, 0))
		}
	}

	intercept := 0.0
	if lr.fitIntercept {
		intercept = yMean - mat.Dot(mat.NewVecDense(c, xMean), weights)
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return errors.NewFitError(op, "non-finite intercept", nil)
	}
	if err := errors.CheckFinite(op, "coefficients", weights.RawVector().Data); err != nil {
		return err
	}

	lr.NFeatures = c
	lr.Weights = weights
	lr.Intercept = intercept
	lr.Rank = rank
	lr.SingularValues = svd.Values(nil)
	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := lr.Intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * lr.Weights.AtVec(j)
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions, nil
}

// PredictRow は1標本の予測値を返す
func (lr *LinearRegression) PredictRow(x []float64) (float64, error) {
	if err := lr.RequireFitted("LinearRegression", "PredictRow"); err != nil {
		return 0, err
	}
	if len(x) != lr.NFeatures {
		return 0, errors.NewDimensionError("LinearRegression.PredictRow", lr.NFeatures, len(x), 1)
	}
	return lr.Intercept + mat.Dot(mat.NewVecDense(len(x), x), lr.Weights), nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	weights := make([]float64, lr.Weights.Len())
	copy(weights, lr.Weights.RawVector().Data)
	return weights
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if err := lr.RequireFitted("LinearRegression", "Score"); err != nil {
		return 0, err
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(columnVector(y), columnVector(yPred))
}

// GetParams はモデルのハイパーパラメータを返す
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"rcond":         lr.rcond,
	}
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, rank=%d)",
		lr.fitIntercept, lr.NFeatures, lr.Rank)
}

func columnVector(m mat.Matrix) mat.Vector {
	if v, ok := m.(mat.Vector); ok {
		return v
	}
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

var (
	_ model.Regressor       = (*LinearRegression)(nil)
	_ model.ParameterGetter = (*LinearRegression)(nil)
)
