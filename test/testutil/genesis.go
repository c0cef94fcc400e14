package testutil

// SubtensorGenesis is a small genesis with two subnets. Netuid 1 has a parent
// hotkey delegating half of its stake to a child.
func SubtensorGenesis() []byte {
	return []byte(`
    {
      "params": {
        "max_children": 5,
        "stake_threshold": "0",
        "pending_child_key_cooldown": 10,
        "sweep_batch_size": 256,
        "max_mechanism_count": 16,
        "default_delegate_take": 11796,
        "max_delegate_take": 11796,
        "max_pending_children_per_block": 64
      },
      "total_issuance": "3000",
      "subnets": [
        {
          "netuid": 1,
          "hyperparams": {
            "tempo": 4,
            "kappa": 32767,
            "rho": 10,
            "activity_cutoff": 5000,
            "bonds_moving_average": 900000,
            "max_allowed_validators": 64,
            "max_allowed_uids": 4096,
            "mechanism_count": 1
          }
        },
        {
          "netuid": 2,
          "hyperparams": {
            "tempo": 6,
            "kappa": 32767,
            "rho": 10,
            "activity_cutoff": 5000,
            "bonds_moving_average": 900000,
            "max_allowed_validators": 64,
            "max_allowed_uids": 4096,
            "mechanism_count": 2
          }
        }
      ],
      "neurons": [
        {"netuid": 1, "hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
        {"netuid": 1, "hotkey": "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
        {"netuid": 1, "hotkey": "GgBaCs3NCBuZN12kCJgAW63ydqohFkHEdfdEXBPzLHq", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
        {"netuid": 2, "hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
        {"netuid": 2, "hotkey": "LbUiWL3xVV8hTFYBVdbTNrpDo41NKS6o3LHHuDzjfcY", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"}
      ],
      "stakes": [
        {"hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", "netuid": 1, "amount": "1000"},
        {"hotkey": "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", "netuid": 1, "amount": "500"},
        {"hotkey": "GgBaCs3NCBuZN12kCJgAW63ydqohFkHEdfdEXBPzLHq", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", "netuid": 1, "amount": "500"},
        {"hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", "netuid": 2, "amount": "600"},
        {"hotkey": "LbUiWL3xVV8hTFYBVdbTNrpDo41NKS6o3LHHuDzjfcY", "coldkey": "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", "netuid": 2, "amount": "400"}
      ],
      "children": [
        {
          "hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR",
          "netuid": 1,
          "children": [{"proportion": 9223372036854775807, "hotkey": "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8"}]
        }
      ],
      "delegate_takes": [
        {"hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "take": 5000}
      ],
      "weights": [
        {"netuid": 1, "sub_id": 0, "hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "uids": [1, 2], "values": [65535, 32768]},
        {"netuid": 1, "sub_id": 0, "hotkey": "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8", "uids": [0, 2], "values": [65535, 65535]},
        {"netuid": 1, "sub_id": 0, "hotkey": "GgBaCs3NCBuZN12kCJgAW63ydqohFkHEdfdEXBPzLHq", "uids": [0, 1], "values": [32768, 65535]},
        {"netuid": 2, "sub_id": 1, "hotkey": "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR", "uids": [1], "values": [65535]}
      ]
    }
	`)
}
