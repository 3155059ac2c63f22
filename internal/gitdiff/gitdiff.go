// Package gitdiff はローカルのGitリポジトリからブランチ間の「純粋な差分」
// （マージベースとフィーチャーブランチの比較）を抽出します。
// CIが差分ファイルを渡さないローカル実行向けの補助的な差分ソースです。
package gitdiff

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Diff は localPath のリポジトリを開き、baseBranch と featureBranch の
// マージベースから featureBranch までのパッチ文字列を返します。
// これは 'git diff base...feature' （3点比較）と同義です。
func Diff(localPath, baseBranch, featureBranch string) (string, error) {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return "", fmt.Errorf("リポジトリのオープンに失敗しました (%s): %w", localPath, err)
	}

	baseCommit, err := resolveCommit(repo, baseBranch)
	if err != nil {
		return "", fmt.Errorf("ベースブランチのコミット取得に失敗: %w", err)
	}

	featureCommit, err := resolveCommit(repo, featureBranch)
	if err != nil {
		return "", fmt.Errorf("フィーチャーブランチのコミット取得に失敗: %w", err)
	}

	// 'git merge-base base feature' に相当する処理
	mergeBaseCommits, err := baseCommit.MergeBase(featureCommit)
	if err != nil {
		return "", fmt.Errorf("マージベース計算中に内部エラーが発生しました: %w", err)
	}
	if len(mergeBaseCommits) == 0 {
		return "", fmt.Errorf("ベースブランチとフィーチャーブランチ間に共通の祖先コミット（マージベース）が見つかりませんでした")
	}

	// マージベースが複数ある場合でも、最初の一つを使用する
	patch, err := mergeBaseCommits[0].Patch(featureCommit)
	if err != nil {
		return "", fmt.Errorf("差分パッチの生成に失敗しました: %w", err)
	}

	return patch.String(), nil
}

// resolveCommit はブランチ名からコミットオブジェクトを解決します。
// ローカルブランチ → origin のリモートブランチの順で探します。
func resolveCommit(repo *git.Repository, branch string) (*object.Commit, error) {
	refNames := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName("origin", branch),
	}

	for _, refName := range refNames {
		ref, err := repo.Reference(refName, true)
		if err != nil {
			continue
		}
		commit, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return nil, fmt.Errorf("コミットオブジェクトの取得に失敗しました (%s): %w", refName, err)
		}
		return commit, nil
	}

	return nil, fmt.Errorf("ブランチ '%s' のリファレンスが見つかりませんでした", branch)
}
