// Package k8s: runtime-environment detection and the container-aware path
// preferences named in spec §6 (DataPath, LogsPath, ConfigPath).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package k8s

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

type client struct {
	cs *kubernetes.Clientset
}

func newInClusterClient() (*client, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, err
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &client{cs: cs}, nil
}

func (c *client) Pod(name string) (*corev1.Pod, error) {
	ns := currentNamespace()
	return c.cs.CoreV1().Pods(ns).Get(context.Background(), name, metav1.GetOptions{})
}

func (c *client) Node(name string) (*corev1.Node, error) {
	return c.cs.CoreV1().Nodes().Get(context.Background(), name, metav1.GetOptions{})
}

func currentNamespace() string {
	if ns := envOr("NALIX_K8S_NAMESPACE", ""); ns != "" {
		return ns
	}
	return "default"
}
